package core

import "time"

type NewsItem struct {
	ID    int
	Title string
	Body  string // markdown
	Time  time.Time
}

type NewsDB interface {
	GetNews(id int) (*NewsItem, error)
	GetLatestNews(limit int) ([]*NewsItem, error)
	InsertNews(n *NewsItem) error // sets n.ID
}
