package httpx

import (
	"net/http"

	"blog/internal/auth"
	"blog/internal/feed"
	"blog/internal/util"
)

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	f, err := s.Feeds.Compose(r.Context(), feed.All())
	if err != nil {
		s.fail(w, r, err)
		return
	}
	page, err := s.page(r, f.Posts)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	s.render(w, r, http.StatusOK, "posts/index.html", util.Context{"page_obj": page})
}

func (s *Server) handleGroupPosts(w http.ResponseWriter, r *http.Request) {
	f, err := s.Feeds.Compose(r.Context(), feed.ByGroup(r.PathValue("slug")))
	if err != nil {
		s.fail(w, r, err)
		return
	}
	page, err := s.page(r, f.Posts)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	s.render(w, r, http.StatusOK, "posts/group_list.html", util.Context{
		"group":    f.Group,
		"page_obj": page,
	})
}

func (s *Server) handleProfile(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	f, err := s.Feeds.Compose(ctx, feed.ByAuthor(r.PathValue("username")))
	if err != nil {
		s.fail(w, r, err)
		return
	}
	page, err := s.page(r, f.Posts)
	if err != nil {
		s.fail(w, r, err)
		return
	}

	following := false
	if uid, ok := auth.UserIDFrom(ctx); ok && uid != f.Author.ID {
		if following, err = s.Follows.IsFollowing(ctx, uid, f.Author.ID); err != nil {
			s.fail(w, r, err)
			return
		}
	}
	followingCount, followersCount, err := s.Follows.Counts(ctx, f.Author.ID)
	if err != nil {
		s.fail(w, r, err)
		return
	}

	s.render(w, r, http.StatusOK, "posts/profile.html", util.Context{
		"author":          f.Author,
		"page_obj":        page,
		"posts_count":     len(f.Posts),
		"is_profile":      true,
		"following":       following,
		"following_count": followingCount,
		"followers_count": followersCount,
	})
}

func (s *Server) handleFollowIndex(w http.ResponseWriter, r *http.Request) {
	uid, _ := auth.UserIDFrom(r.Context())
	f, err := s.Feeds.Compose(r.Context(), feed.FollowedBy(uid))
	if err != nil {
		s.fail(w, r, err)
		return
	}
	page, err := s.page(r, f.Posts)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	s.render(w, r, http.StatusOK, "posts/follow.html", util.Context{"page_obj": page})
}
