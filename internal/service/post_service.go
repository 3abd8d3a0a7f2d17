package service

import (
	"context"
	"log/slog"
	"strings"
	"unicode/utf8"

	"go.opentelemetry.io/otel/attribute"

	"github.com/aryan0dhankhar/wardenlink/internal/domain"
	"github.com/aryan0dhankhar/wardenlink/internal/observability/metrics"
	"github.com/aryan0dhankhar/wardenlink/internal/observability/tracing"
	"github.com/aryan0dhankhar/wardenlink/internal/security"
	"github.com/aryan0dhankhar/wardenlink/internal/security/audit"
)

const (
	maxPostLength    = 5000
	maxPostMedia     = 10
	defaultPageSize  = 20
	maxPageSize      = 50
	profilePostLimit = 50
)

// PostService manages the community feed
type PostService struct {
	posts    domain.PostRepository
	users    domain.UserRepository
	notifier *NotificationService
	authz    *security.Authorizer
	audit    *audit.Logger
	logger   *slog.Logger
}

func NewPostService(
	posts domain.PostRepository,
	users domain.UserRepository,
	notifier *NotificationService,
	authz *security.Authorizer,
	auditLog *audit.Logger,
	logger *slog.Logger,
) *PostService {
	if logger == nil {
		logger = slog.Default()
	}
	return &PostService{posts: posts, users: users, notifier: notifier, authz: authz, audit: auditLog, logger: logger}
}

// CreatePostInput is the body of POST /api/posts
type CreatePostInput struct {
	Text             string              `json:"text"`
	Media            []domain.Media      `json:"media"`
	Category         domain.PostCategory `json:"category"`
	Visibility       domain.Visibility   `json:"visibility"`
	IsOfficialNotice bool                `json:"isOfficialNotice"`
}

func (in *CreatePostInput) normalize() error {
	in.Text = strings.TrimSpace(in.Text)
	if in.Text == "" && len(in.Media) == 0 {
		return domain.Invalid("text or media is required")
	}
	if utf8.RuneCountInString(in.Text) > maxPostLength {
		return domain.Invalid("post text is too long")
	}
	if len(in.Media) > maxPostMedia {
		return domain.Invalid("too many media items")
	}
	for _, m := range in.Media {
		if strings.TrimSpace(m.URL) == "" {
			return domain.Invalid("media url is required")
		}
		if !m.Type.Valid() {
			return domain.Invalid("media type must be image, video or document")
		}
	}
	if in.Category == "" {
		in.Category = domain.PostPersonal
	}
	if !in.Category.Valid() {
		return domain.Invalid("unknown post category " + string(in.Category))
	}
	if in.Visibility == "" {
		in.Visibility = domain.VisibleAll
	}
	if !in.Visibility.Valid() {
		return domain.Invalid("visibility must be all, department or station")
	}
	return nil
}

// Create publishes a post. Official notices are reserved for admins.
func (s *PostService) Create(ctx context.Context, author *domain.User, in CreatePostInput) (post *domain.Post, err error) {
	ctx, span := tracing.Start(ctx, "post.create")
	defer func() { tracing.End(span, err) }()

	p := security.PrincipalOf(author)
	if err := s.authz.Evaluate(p, security.Requirement{Permission: security.PermPostsCreate}); err != nil {
		return nil, err
	}
	if in.IsOfficialNotice && !s.authz.Allows(p, security.AnyRole(domain.RoleAdmin, domain.RoleSuperAdmin)) {
		return nil, domain.ErrOfficialNoticeForbidden
	}
	if err := in.normalize(); err != nil {
		return nil, err
	}

	post = &domain.Post{
		AuthorID:         author.ID,
		Text:             in.Text,
		Media:            in.Media,
		Category:         in.Category,
		IsOfficialNotice: in.IsOfficialNotice,
		Visibility:       in.Visibility,
		Likes:            []string{},
	}
	if post.Media == nil {
		post.Media = []domain.Media{}
	}
	if err := s.posts.Create(ctx, post); err != nil {
		return nil, err
	}
	span.SetAttributes(attribute.String("post.id", post.ID), attribute.String("post.category", string(post.Category)))
	metrics.ObservePost(string(post.Category))

	s.notifier.Notify(ctx, author.ID, domain.NotifyPostCreated, "Your post was published", map[string]string{"postId": post.ID})
	return post, nil
}

// ListPostsInput selects a feed page. Page counts from 1.
type ListPostsInput struct {
	OfficialOnly bool
	Category     domain.PostCategory
	Page         int
	Limit        int
}

// List returns a feed page, pinned posts first.
func (s *PostService) List(ctx context.Context, in ListPostsInput) ([]*domain.Post, error) {
	if in.Category != "" && !in.Category.Valid() {
		return nil, domain.Invalid("unknown post category " + string(in.Category))
	}
	limit := in.Limit
	if limit <= 0 {
		limit = defaultPageSize
	}
	if limit > maxPageSize {
		limit = maxPageSize
	}
	page := in.Page
	if page < 1 {
		page = 1
	}
	return s.posts.List(ctx, domain.PostFilter{
		OfficialOnly: in.OfficialOnly,
		Category:     in.Category,
		Limit:        limit,
		Offset:       (page - 1) * limit,
	})
}

// ToggleLike likes the post for userID, or unlikes it if already liked.
func (s *PostService) ToggleLike(ctx context.Context, userID, postID string) (*domain.Post, error) {
	return s.posts.ToggleLike(ctx, postID, userID)
}

func (s *PostService) Pin(ctx context.Context, actorID, postID string) (*domain.Post, error) {
	post, err := s.posts.Pin(ctx, postID)
	if err != nil {
		return nil, err
	}
	s.audit.LogAction(ctx, actorID, domain.ActionPostPin, post.ID, nil)
	return post, nil
}

// Delete removes a post. Only its author or a super admin may delete it.
func (s *PostService) Delete(ctx context.Context, actor *domain.User, postID string) error {
	post, err := s.posts.GetByID(ctx, postID)
	if err != nil {
		return err
	}
	if err := s.authz.Evaluate(security.PrincipalOf(actor), security.Requirement{OwnerID: post.AuthorID}); err != nil {
		return domain.Forbidden("not allowed")
	}
	if err := s.posts.Delete(ctx, postID); err != nil {
		return err
	}
	if actor.ID != post.AuthorID {
		s.audit.LogAction(ctx, actor.ID, domain.ActionPostDelete, post.ID, map[string]any{"author": post.AuthorID})
	}
	return nil
}

// Profile returns a member with their latest posts.
func (s *PostService) Profile(ctx context.Context, userID string) (*domain.User, []*domain.Post, error) {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return nil, nil, err
	}
	posts, err := s.posts.ListByAuthor(ctx, user.ID, profilePostLimit)
	if err != nil {
		return nil, nil, err
	}
	return user, posts, nil
}

const maxCommentLength = 2000

// CommentService manages replies on posts
type CommentService struct {
	comments domain.CommentRepository
	posts    domain.PostRepository
	notifier *NotificationService
	logger   *slog.Logger
}

func NewCommentService(comments domain.CommentRepository, posts domain.PostRepository, notifier *NotificationService, logger *slog.Logger) *CommentService {
	if logger == nil {
		logger = slog.Default()
	}
	return &CommentService{comments: comments, posts: posts, notifier: notifier, logger: logger}
}

// Add comments on a post and notifies its author.
func (s *CommentService) Add(ctx context.Context, author *domain.User, postID, text string) (*domain.Comment, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, domain.Invalid("comment text is required")
	}
	if utf8.RuneCountInString(text) > maxCommentLength {
		return nil, domain.Invalid("comment text is too long")
	}
	post, err := s.posts.GetByID(ctx, postID)
	if err != nil {
		return nil, err
	}
	c := &domain.Comment{PostID: post.ID, AuthorID: author.ID, Text: text}
	if err := s.comments.Create(ctx, c); err != nil {
		return nil, err
	}
	if post.AuthorID != author.ID {
		s.notifier.Notify(ctx, post.AuthorID, domain.NotifyPostCommented, author.FullName+" commented on your post",
			map[string]string{"postId": post.ID, "commentId": c.ID})
	}
	return c, nil
}

// List returns a post's comments, newest first.
func (s *CommentService) List(ctx context.Context, postID string) ([]*domain.Comment, error) {
	return s.comments.ListByPost(ctx, postID)
}

// PageService manages community pages
type PageService struct {
	pages  domain.PageRepository
	logger *slog.Logger
}

func NewPageService(pages domain.PageRepository, logger *slog.Logger) *PageService {
	if logger == nil {
		logger = slog.Default()
	}
	return &PageService{pages: pages, logger: logger}
}

// CreatePageInput is the body of POST /api/pages
type CreatePageInput struct {
	Name        string          `json:"name"`
	Type        domain.PageType `json:"type"`
	Description string          `json:"description"`
	CoverURL    string          `json:"coverUrl"`
}

// Create makes the creator the page's only admin.
func (s *PageService) Create(ctx context.Context, creatorID string, in CreatePageInput) (*domain.Page, error) {
	if err := missing(field("name", in.Name)); err != nil {
		return nil, err
	}
	if in.Type == "" {
		in.Type = domain.PageCommunity
	}
	if !in.Type.Valid() {
		return nil, domain.Invalid("unknown page type " + string(in.Type))
	}
	p := &domain.Page{
		Name:        strings.TrimSpace(in.Name),
		Type:        in.Type,
		Description: strings.TrimSpace(in.Description),
		CoverURL:    strings.TrimSpace(in.CoverURL),
		Admins:      []string{creatorID},
		Moderators:  []string{},
	}
	if err := s.pages.Create(ctx, p); err != nil {
		return nil, err
	}
	return p, nil
}

func (s *PageService) List(ctx context.Context) ([]*domain.Page, error) {
	return s.pages.List(ctx)
}
