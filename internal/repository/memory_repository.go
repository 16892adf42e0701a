package repository

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/maheshrc27/crosspost-api/internal/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// The in-memory repositories back tests and local runs without MONGO_URI.

type memoryUserRepository struct {
	mu    sync.RWMutex
	users map[primitive.ObjectID]models.User
}

func NewMemoryUserRepository() UserRepository {
	return &memoryUserRepository{users: make(map[primitive.ObjectID]models.User)}
}

func (r *memoryUserRepository) GetByID(_ context.Context, id primitive.ObjectID) (*models.User, bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	user, ok := r.users[id]
	if !ok {
		return nil, false, nil
	}
	return copyUser(user), true, nil
}

func (r *memoryUserRepository) GetByEmail(_ context.Context, email string) (*models.User, bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, user := range r.users {
		if user.Email == email {
			return copyUser(user), true, nil
		}
	}
	return nil, false, nil
}

func (r *memoryUserRepository) Create(_ context.Context, user *models.User) (primitive.ObjectID, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, existing := range r.users {
		if existing.Email == user.Email {
			return primitive.NilObjectID, errors.New("user exists")
		}
	}
	user.ID = primitive.NewObjectID()
	r.users[user.ID] = *copyUser(*user)
	return user.ID, nil
}

func (r *memoryUserRepository) SetVerificationCode(_ context.Context, email string, code *string) error {
	return r.mutate(func(u *models.User) bool { return u.Email == email }, func(u *models.User) {
		u.VerificationCode = copyString(code)
	})
}

func (r *memoryUserRepository) MarkVerified(_ context.Context, email string) error {
	return r.mutate(func(u *models.User) bool { return u.Email == email }, func(u *models.User) {
		u.Verified = true
		u.VerificationCode = nil
	})
}

func (r *memoryUserRepository) UpdatePassword(_ context.Context, id primitive.ObjectID, passwordHash string, clearCode bool) error {
	return r.mutate(func(u *models.User) bool { return u.ID == id }, func(u *models.User) {
		u.Password = passwordHash
		if clearCode {
			u.VerificationCode = nil
		}
	})
}

// mutate applies fn to the first matching user. A miss is not an error,
// matching an update that selects no document.
func (r *memoryUserRepository) mutate(match func(*models.User) bool, fn func(*models.User)) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for id, user := range r.users {
		if match(&user) {
			fn(&user)
			user.UpdatedAt = time.Now().UTC()
			r.users[id] = user
			return nil
		}
	}
	return nil
}

type memoryTenantRepository struct {
	mu      sync.RWMutex
	tenants map[primitive.ObjectID]models.Tenant
}

func NewMemoryTenantRepository() TenantRepository {
	return &memoryTenantRepository{tenants: make(map[primitive.ObjectID]models.Tenant)}
}

func (r *memoryTenantRepository) GetByUserID(_ context.Context, userID primitive.ObjectID) (*models.Tenant, bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	tenant, ok := r.tenants[userID]
	if !ok {
		return nil, false, nil
	}
	return copyTenant(tenant), true, nil
}

func (r *memoryTenantRepository) Create(_ context.Context, tenant *models.Tenant) (primitive.ObjectID, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.tenants[tenant.UserID]; exists {
		return primitive.NilObjectID, errors.New("tenant exists")
	}
	tenant.ID = primitive.NewObjectID()
	r.tenants[tenant.UserID] = *copyTenant(*tenant)
	return tenant.ID, nil
}

func (r *memoryTenantRepository) SetInstagram(_ context.Context, userID primitive.ObjectID, creds models.InstaCredentials) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	tenant, ok := r.tenants[userID]
	if !ok {
		return false, nil
	}
	tenant.InstaCredentials = &creds
	r.tenants[userID] = tenant
	return true, nil
}

func (r *memoryTenantRepository) SetFacebook(_ context.Context, userID primitive.ObjectID, creds models.FacebookCredentials) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	tenant, ok := r.tenants[userID]
	if !ok {
		return false, nil
	}
	tenant.FacebookCredentials = &creds
	r.tenants[userID] = tenant
	return true, nil
}

func (r *memoryTenantRepository) Patch(_ context.Context, userID primitive.ObjectID, patch models.CredentialsPatch, touch bool) (bool, bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	stored, ok := r.tenants[userID]
	if !ok {
		return false, false, nil
	}

	tenant := copyTenant(stored)
	if patch.InstaAccessToken != nil || patch.IGUserID != nil {
		if tenant.InstaCredentials == nil {
			tenant.InstaCredentials = &models.InstaCredentials{}
		}
	}
	if patch.PageID != nil || patch.FacebookAccess != nil || patch.ExpiryTimestamp != nil {
		if tenant.FacebookCredentials == nil {
			tenant.FacebookCredentials = &models.FacebookCredentials{}
		}
	}

	modified := false
	assign := func(dst *string, src *string) {
		if src != nil && *dst != *src {
			*dst = *src
			modified = true
		}
	}
	if tenant.InstaCredentials != nil {
		assign(&tenant.InstaCredentials.AccessToken, patch.InstaAccessToken)
		assign(&tenant.InstaCredentials.IGUserID, patch.IGUserID)
	}
	if fb := tenant.FacebookCredentials; fb != nil {
		assign(&fb.PageID, patch.PageID)
		assign(&fb.FacebookAccess, patch.FacebookAccess)
		if patch.ExpiryTimestamp != nil && fb.ExpiryTimestamp != *patch.ExpiryTimestamp {
			fb.ExpiryTimestamp = *patch.ExpiryTimestamp
			modified = true
		}
	}
	if touch {
		now := time.Now().UTC()
		tenant.UpdatedAt = &now
		modified = true
	}

	r.tenants[userID] = *tenant
	return true, modified, nil
}

func (r *memoryTenantRepository) ListByFacebookExpiry(_ context.Context, from, to time.Time) ([]*models.Tenant, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var tenants []*models.Tenant
	for _, tenant := range r.tenants {
		fb := tenant.FacebookCredentials
		if fb == nil || fb.ExpiryTimestamp == 0 {
			continue
		}
		if fb.ExpiryTimestamp >= from.Unix() && fb.ExpiryTimestamp <= to.Unix() {
			tenants = append(tenants, copyTenant(tenant))
		}
	}
	return tenants, nil
}

type memorySocialPostRepository struct {
	mu    sync.RWMutex
	posts []models.SocialPost
}

func NewMemorySocialPostRepository() SocialPostRepository {
	return &memorySocialPostRepository{}
}

func (r *memorySocialPostRepository) Create(_ context.Context, post *models.SocialPost) (primitive.ObjectID, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	post.ID = primitive.NewObjectID()
	r.posts = append(r.posts, *post)
	return post.ID, nil
}

func (r *memorySocialPostRepository) ListByUserID(_ context.Context, userID primitive.ObjectID, limit int64) ([]*models.SocialPost, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var posts []*models.SocialPost
	for i := range r.posts {
		if r.posts[i].UserID == userID {
			post := r.posts[i]
			posts = append(posts, &post)
		}
	}
	sort.SliceStable(posts, func(i, j int) bool {
		return posts[i].UploadedAt.After(posts[j].UploadedAt)
	})
	if limit > 0 && int64(len(posts)) > limit {
		posts = posts[:limit]
	}
	return posts, nil
}

func copyString(s *string) *string {
	if s == nil {
		return nil
	}
	v := *s
	return &v
}

func copyUser(u models.User) *models.User {
	u.VerificationCode = copyString(u.VerificationCode)
	return &u
}

func copyTenant(t models.Tenant) *models.Tenant {
	if t.InstaCredentials != nil {
		ig := *t.InstaCredentials
		t.InstaCredentials = &ig
	}
	if t.FacebookCredentials != nil {
		fb := *t.FacebookCredentials
		t.FacebookCredentials = &fb
	}
	if t.UpdatedAt != nil {
		at := *t.UpdatedAt
		t.UpdatedAt = &at
	}
	return &t
}
