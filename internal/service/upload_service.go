package service

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/aryan0dhankhar/wardenlink/internal/domain"
	"github.com/aryan0dhankhar/wardenlink/internal/infrastructure/storage"
)

// MaxUploadBytes caps a single upload.
const MaxUploadBytes = 10 << 20

// UploadPurpose decides where an object lives and which types it accepts.
type UploadPurpose string

const (
	UploadAttachment UploadPurpose = "attachment"
	UploadAvatar     UploadPurpose = "avatar"
	UploadCover      UploadPurpose = "cover"
)

// UploadService hands out presigned PUT URLs so clients upload media
// straight to object storage.
type UploadService struct {
	presigner storage.Presigner
	ttl       time.Duration
	logger    *slog.Logger
	now       func() time.Time
	newID     func() string
}

// NewUploadService accepts a nil presigner; Presign then reports the
// feature as unavailable.
func NewUploadService(presigner storage.Presigner, ttl time.Duration, logger *slog.Logger) *UploadService {
	if logger == nil {
		logger = slog.Default()
	}
	if ttl <= 0 {
		ttl = 15 * time.Minute
	}
	return &UploadService{presigner: presigner, ttl: ttl, logger: logger, now: utcNow, newID: uuid.NewString}
}

// PresignInput is the body of POST /api/uploads/presign
type PresignInput struct {
	Purpose     UploadPurpose `json:"purpose"`
	FileName    string        `json:"fileName"`
	ContentType string        `json:"contentType"`
	Size        int64         `json:"size"`
}

// PresignResult tells the client where to PUT the file and how to
// reference it afterwards.
type PresignResult struct {
	UploadURL   string                `json:"uploadUrl"`
	Method      string                `json:"method"`
	Key         string                `json:"key"`
	PublicURL   string                `json:"publicUrl"`
	ContentType string                `json:"contentType"`
	Kind        domain.AttachmentKind `json:"kind,omitempty"`
	ExpiresAt   time.Time             `json:"expiresAt"`
}

func (s *UploadService) Presign(ctx context.Context, userID string, in PresignInput) (*PresignResult, error) {
	if s.presigner == nil {
		return nil, domain.Unavailable("file uploads are not configured")
	}
	if in.Purpose == "" {
		in.Purpose = UploadAttachment
	}
	contentType := strings.ToLower(strings.TrimSpace(in.ContentType))
	kind, err := classifyUpload(in.Purpose, contentType)
	if err != nil {
		return nil, err
	}
	if in.Size < 0 || in.Size > MaxUploadBytes {
		return nil, domain.Invalid("file must be at most 10MB")
	}

	key := fmt.Sprintf("uploads/%s/%s/%s%s", in.Purpose, userID, s.newID(), safeExt(in.FileName))
	url, err := s.presigner.PresignPut(ctx, key, contentType, s.ttl)
	if err != nil {
		return nil, err
	}
	s.logger.Debug("presigned upload",
		slog.String("user_id", userID),
		slog.String("key", key),
		slog.String("content_type", contentType),
	)
	return &PresignResult{
		UploadURL:   url,
		Method:      "PUT",
		Key:         key,
		PublicURL:   s.presigner.PublicURL(key),
		ContentType: contentType,
		Kind:        kind,
		ExpiresAt:   s.now().Add(s.ttl),
	}, nil
}

// classifyUpload checks contentType against purpose. Attachments also get
// the message attachment kind they map to.
func classifyUpload(purpose UploadPurpose, contentType string) (domain.AttachmentKind, error) {
	image := strings.HasPrefix(contentType, "image/")
	switch purpose {
	case UploadAvatar, UploadCover:
		if !image {
			return "", domain.Invalid("only images are allowed")
		}
		return "", nil
	case UploadAttachment:
		switch {
		case image:
			return domain.AttachmentImage, nil
		case strings.HasPrefix(contentType, "audio/"):
			return domain.AttachmentVoice, nil
		case strings.HasPrefix(contentType, "video/"), contentType == "application/pdf":
			return domain.AttachmentDocument, nil
		}
		return "", domain.Invalid("unsupported file type")
	}
	return "", domain.Invalid("unknown upload purpose " + string(purpose))
}

func safeExt(name string) string {
	ext := strings.ToLower(filepath.Ext(name))
	if len(ext) < 2 || len(ext) > 10 {
		return ""
	}
	for _, r := range ext[1:] {
		if (r < 'a' || r > 'z') && (r < '0' || r > '9') {
			return ""
		}
	}
	return ext
}
