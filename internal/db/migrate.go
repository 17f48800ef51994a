package db

import (
	"github.com/pkg/errors"
	"gorm.io/gorm"

	"blog/internal/models"
)

// Models lists every table the application owns, parents before children.
var Models = []interface{}{
	&models.User{},
	&models.Session{},
	&models.Group{},
	&models.Post{},
	&models.Comment{},
	&models.Follow{},
}

func Migrate(db *gorm.DB) error {
	if err := db.AutoMigrate(Models...); err != nil {
		return errors.Wrap(err, "auto migrate")
	}
	return nil
}
