package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestStringTruncates(t *testing.T) {
	old := TextLimit
	defer func() { TextLimit = old }()
	TextLimit = 15

	p := Post{Text: "Тестовый пост для проверки длины"}
	assert.Equal(t, "Тестовый пост д", p.String())

	c := Comment{Text: "short"}
	assert.Equal(t, "short", c.String())

	TextLimit = 0
	assert.Equal(t, p.Text, p.String())
}

func TestGroupString(t *testing.T) {
	assert.Equal(t, "Test group", Group{Title: "Test group", Slug: "test_group"}.String())
}
