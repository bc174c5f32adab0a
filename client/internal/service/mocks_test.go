package service

import (
	"context"
	"sync"

	"github.com/imgr-dev/imgr/shared/domain"
)

type MockThreadStorage struct {
	mu sync.Mutex

	ListThreadsFunc   func(offset, limit int) ([]domain.Thread, error)
	GetThreadFunc     func(id domain.ThreadId) (domain.Thread, error)
	InsertThreadFunc  func(data domain.ThreadCreationData) (domain.Thread, error)
	DeleteThreadFunc  func(id domain.ThreadId) error
	ListCommentsFunc  func(threadId domain.ThreadId) ([]domain.Comment, error)
	CountCommentsFunc func(ids []domain.ThreadId) (map[domain.ThreadId]int, error)
	InsertCommentFunc func(data domain.CommentCreationData) (domain.Comment, error)
	DeleteCommentFunc func(id domain.CommentId) error

	InsertedThreads  []domain.ThreadCreationData
	InsertedComments []domain.CommentCreationData
	CountCalls       int
}

func (m *MockThreadStorage) ListThreads(_ context.Context, offset, limit int) ([]domain.Thread, error) {
	return m.ListThreadsFunc(offset, limit)
}

func (m *MockThreadStorage) GetThread(_ context.Context, id domain.ThreadId) (domain.Thread, error) {
	return m.GetThreadFunc(id)
}

func (m *MockThreadStorage) InsertThread(_ context.Context, data domain.ThreadCreationData) (domain.Thread, error) {
	m.mu.Lock()
	m.InsertedThreads = append(m.InsertedThreads, data)
	m.mu.Unlock()
	if m.InsertThreadFunc == nil {
		return domain.Thread{Id: "new", Title: data.Title, ImageUrl: data.ImageUrl, AuthorId: data.AuthorId}, nil
	}
	return m.InsertThreadFunc(data)
}

func (m *MockThreadStorage) DeleteThread(_ context.Context, id domain.ThreadId) error {
	return m.DeleteThreadFunc(id)
}

func (m *MockThreadStorage) ListComments(_ context.Context, threadId domain.ThreadId) ([]domain.Comment, error) {
	return m.ListCommentsFunc(threadId)
}

func (m *MockThreadStorage) CountComments(_ context.Context, ids []domain.ThreadId) (map[domain.ThreadId]int, error) {
	m.mu.Lock()
	m.CountCalls++
	m.mu.Unlock()
	return m.CountCommentsFunc(ids)
}

func (m *MockThreadStorage) InsertComment(_ context.Context, data domain.CommentCreationData) (domain.Comment, error) {
	m.mu.Lock()
	m.InsertedComments = append(m.InsertedComments, data)
	m.mu.Unlock()
	if m.InsertCommentFunc == nil {
		return domain.Comment{Id: "c-new", ThreadId: data.ThreadId, AuthorId: data.AuthorId, Content: data.Content}, nil
	}
	return m.InsertCommentFunc(data)
}

func (m *MockThreadStorage) DeleteComment(_ context.Context, id domain.CommentId) error {
	return m.DeleteCommentFunc(id)
}

type upload struct {
	Name        string
	Size        int
	ContentType string
}

type MockImageStorage struct {
	mu         sync.Mutex
	UploadFunc func(name string, data []byte) (string, error)
	Uploads    []upload
}

func (m *MockImageStorage) Upload(_ context.Context, name string, data []byte, contentType string) (string, error) {
	m.mu.Lock()
	m.Uploads = append(m.Uploads, upload{Name: name, Size: len(data), ContentType: contentType})
	m.mu.Unlock()
	if m.UploadFunc == nil {
		return "https://cdn.test/" + name, nil
	}
	return m.UploadFunc(name, data)
}

type staticIdentity domain.Identity

func (s staticIdentity) Identity() domain.Identity { return domain.Identity(s) }

type MockAuthBackend struct {
	mu sync.Mutex

	SignUpFunc  func(creds domain.Credentials, username string) (domain.SignUpResult, error)
	SignInFunc  func(creds domain.Credentials) (domain.Session, error)
	SignOutFunc func(accessToken string) error
	RecoverFunc func(email string) error

	Calls []string
}

func (m *MockAuthBackend) record(call string) {
	m.mu.Lock()
	m.Calls = append(m.Calls, call)
	m.mu.Unlock()
}

func (m *MockAuthBackend) SignUp(_ context.Context, creds domain.Credentials, username domain.Username) (domain.SignUpResult, error) {
	m.record("SignUp")
	return m.SignUpFunc(creds, username)
}

func (m *MockAuthBackend) SignIn(_ context.Context, creds domain.Credentials) (domain.Session, error) {
	m.record("SignIn")
	return m.SignInFunc(creds)
}

func (m *MockAuthBackend) SignOut(_ context.Context, accessToken string) error {
	m.record("SignOut")
	return m.SignOutFunc(accessToken)
}

func (m *MockAuthBackend) Recover(_ context.Context, email domain.Email) error {
	m.record("Recover")
	return m.RecoverFunc(email)
}

type MockSessionManager struct {
	mu        sync.Mutex
	current   *domain.Session
	SetErr    error
	RefreshFn func() error
	Cleared   int
}

func (m *MockSessionManager) Set(_ context.Context, s domain.Session) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.SetErr != nil {
		return m.SetErr
	}
	m.current = &s
	return nil
}

func (m *MockSessionManager) Clear(context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.current = nil
	m.Cleared++
	return nil
}

func (m *MockSessionManager) Session() *domain.Session {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.current
}

func (m *MockSessionManager) ForceRefresh(context.Context) error {
	if m.RefreshFn == nil {
		return nil
	}
	return m.RefreshFn()
}
