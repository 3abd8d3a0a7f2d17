package domain

import (
	"context"
	"time"
)

// PageType classifies community pages.
type PageType string

const (
	PageDepartment PageType = "department"
	PageWelfare    PageType = "welfare"
	PageTraining   PageType = "training"
	PageSports     PageType = "sports"
	PageMemorial   PageType = "memorial"
	PageCommunity  PageType = "community"
)

func (t PageType) Valid() bool {
	switch t {
	case PageDepartment, PageWelfare, PageTraining, PageSports, PageMemorial, PageCommunity:
		return true
	}
	return false
}

// Page is a community page run by its admins.
type Page struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Type        PageType  `json:"type"`
	Description string    `json:"description"`
	CoverURL    string    `json:"coverUrl"`
	Admins      []string  `json:"admins"`
	Moderators  []string  `json:"moderators"`
	CreatedAt   time.Time `json:"createdAt"`
}

// PageRepository defines data access for community pages
type PageRepository interface {
	Create(ctx context.Context, page *Page) error
	List(ctx context.Context) ([]*Page, error)
}
