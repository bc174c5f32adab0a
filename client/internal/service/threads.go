package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/imgr-dev/imgr/shared/domain"
	internal_errors "github.com/imgr-dev/imgr/shared/errors"
	"github.com/imgr-dev/imgr/shared/logger"
	"github.com/imgr-dev/imgr/shared/messages"
	"github.com/imgr-dev/imgr/shared/utils"
	"github.com/imgr-dev/imgr/shared/validation"
)

// ThreadStorage is the data plane: the REST client or the direct pg store.
type ThreadStorage interface {
	ListThreads(ctx context.Context, offset, limit int) ([]domain.Thread, error)
	GetThread(ctx context.Context, id domain.ThreadId) (domain.Thread, error)
	InsertThread(ctx context.Context, data domain.ThreadCreationData) (domain.Thread, error)
	DeleteThread(ctx context.Context, id domain.ThreadId) error
	ListComments(ctx context.Context, threadId domain.ThreadId) ([]domain.Comment, error)
	CountComments(ctx context.Context, threadIds []domain.ThreadId) (map[domain.ThreadId]int, error)
	InsertComment(ctx context.Context, data domain.CommentCreationData) (domain.Comment, error)
	DeleteComment(ctx context.Context, id domain.CommentId) error
}

type ImageStorage interface {
	Upload(ctx context.Context, name string, data []byte, contentType string) (string, error)
}

type IdentitySource interface {
	Identity() domain.Identity
}

type Threads struct {
	storage   ThreadStorage
	images    ImageStorage
	identity  IdentitySource
	validator *validation.Validator
	now       func() time.Time
	log       *slog.Logger
}

func NewThreads(storage ThreadStorage, images ImageStorage, identity IdentitySource, validator *validation.Validator) *Threads {
	return &Threads{
		storage:   storage,
		images:    images,
		identity:  identity,
		validator: validator,
		now:       time.Now,
		log:       logger.Component("threads"),
	}
}

func (s *Threads) Identity() domain.Identity {
	return s.identity.Identity()
}

func (s *Threads) ListThreads(ctx context.Context, offset, limit int) ([]domain.Thread, error) {
	return s.storage.ListThreads(ctx, offset, limit)
}

func (s *Threads) GetThread(ctx context.Context, id domain.ThreadId) (domain.Thread, error) {
	return s.storage.GetThread(ctx, id)
}

func (s *Threads) ListComments(ctx context.Context, threadId domain.ThreadId) ([]domain.Comment, error) {
	return s.storage.ListComments(ctx, threadId)
}

func (s *Threads) CountComments(ctx context.Context, threadIds []domain.ThreadId) (map[domain.ThreadId]int, error) {
	if len(threadIds) == 0 {
		return map[domain.ThreadId]int{}, nil
	}
	return s.storage.CountComments(ctx, threadIds)
}

// PostComment validates before touching the network, then requires a
// logged-in user.
func (s *Threads) PostComment(ctx context.Context, threadId domain.ThreadId, content string) (domain.Comment, error) {
	content = strings.TrimSpace(content)
	if err := s.validator.Comment(content); err != nil {
		return domain.Comment{}, err
	}
	uid := s.identity.Identity().UserId
	if uid == "" {
		return domain.Comment{}, internal_errors.NewAuth(messages.NotLoggedIn)
	}

	comment, err := s.storage.InsertComment(ctx, domain.CommentCreationData{
		ThreadId: threadId,
		AuthorId: uid,
		Content:  content,
	})
	if err != nil {
		return domain.Comment{}, err
	}
	s.log.Info("comment posted", "thread_id", threadId, "comment_id", comment.Id)
	return comment, nil
}

func (s *Threads) DeleteComment(ctx context.Context, id domain.CommentId) error {
	if err := s.storage.DeleteComment(ctx, id); err != nil {
		return err
	}
	s.log.Info("comment deleted", "comment_id", id)
	return nil
}

func (s *Threads) DeleteThread(ctx context.Context, id domain.ThreadId) error {
	if err := s.storage.DeleteThread(ctx, id); err != nil {
		return err
	}
	s.log.Info("thread deleted", "thread_id", id)
	return nil
}

// UploadImage stores already-compressed JPEG bytes under a per-user name
// and returns the public URL.
func (s *Threads) UploadImage(ctx context.Context, data []byte) (string, error) {
	uid := s.identity.Identity().UserId
	if uid == "" {
		return "", internal_errors.NewAuth(messages.NotLoggedIn)
	}
	name := utils.ImageObjectName(uid, s.now())
	url, err := s.images.Upload(ctx, name, data, "image/jpeg")
	if err != nil {
		return "", fmt.Errorf("%s: %w", messages.ImageUpload, err)
	}
	return url, nil
}

// CreateThread validates title and caption, uploads the image and inserts
// the thread. Validation failures never reach the network.
func (s *Threads) CreateThread(ctx context.Context, title, caption string, image []byte) (domain.Thread, error) {
	title = strings.TrimSpace(title)
	caption = strings.TrimSpace(caption)
	if err := s.validator.Title(title); err != nil {
		return domain.Thread{}, err
	}
	if err := s.validator.Caption(caption); err != nil {
		return domain.Thread{}, err
	}
	if len(image) == 0 {
		return domain.Thread{}, internal_errors.NewValidation(messages.ImageRequired)
	}
	uid := s.identity.Identity().UserId
	if uid == "" {
		return domain.Thread{}, internal_errors.NewAuth(messages.NotLoggedIn)
	}

	imageUrl, err := s.UploadImage(ctx, image)
	if err != nil {
		return domain.Thread{}, err
	}

	data := domain.ThreadCreationData{
		Title:    strings.TrimSpace(title),
		ImageUrl: imageUrl,
		AuthorId: uid,
	}
	if caption = strings.TrimSpace(caption); caption != "" {
		data.Caption = &caption
	}

	thread, err := s.storage.InsertThread(ctx, data)
	if err != nil {
		// the uploaded object stays behind; storage has no delete grant for clients
		s.log.Error("thread insert failed after upload", "image_url", imageUrl, "error", err)
		return domain.Thread{}, err
	}
	s.log.Info("thread created", "thread_id", thread.Id)
	return thread, nil
}
