package repository

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/maheshrc27/crosspost-api/internal/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

type TenantRepository interface {
	GetByUserID(ctx context.Context, userID primitive.ObjectID) (*models.Tenant, bool, error)
	Create(ctx context.Context, tenant *models.Tenant) (primitive.ObjectID, error)
	SetInstagram(ctx context.Context, userID primitive.ObjectID, creds models.InstaCredentials) (bool, error)
	SetFacebook(ctx context.Context, userID primitive.ObjectID, creds models.FacebookCredentials) (bool, error)
	Patch(ctx context.Context, userID primitive.ObjectID, patch models.CredentialsPatch, touch bool) (matched bool, modified bool, err error)
	ListByFacebookExpiry(ctx context.Context, from, to time.Time) ([]*models.Tenant, error)
}

type tenantRepository struct {
	c *mongo.Collection
}

func NewTenantRepository(db *mongo.Database) TenantRepository {
	return &tenantRepository{c: db.Collection(TenantCollection)}
}

func (r *tenantRepository) GetByUserID(ctx context.Context, userID primitive.ObjectID) (*models.Tenant, bool, error) {
	var tenant models.Tenant
	err := r.c.FindOne(ctx, bson.M{"user_id": userID}).Decode(&tenant)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, false, nil
		}
		slog.Info(err.Error())
		return nil, false, err
	}
	return &tenant, true, nil
}

func (r *tenantRepository) Create(ctx context.Context, tenant *models.Tenant) (primitive.ObjectID, error) {
	result, err := r.c.InsertOne(ctx, tenant)
	if err != nil {
		slog.Info(err.Error())
		return primitive.NilObjectID, err
	}

	id, ok := result.InsertedID.(primitive.ObjectID)
	if !ok {
		return primitive.NilObjectID, errors.New("unexpected inserted id type")
	}
	tenant.ID = id
	return id, nil
}

// SetInstagram replaces the whole Instagram sub-document.
func (r *tenantRepository) SetInstagram(ctx context.Context, userID primitive.ObjectID, creds models.InstaCredentials) (bool, error) {
	return r.set(ctx, userID, bson.M{"insta_credentials": creds})
}

// SetFacebook replaces the whole Facebook sub-document.
func (r *tenantRepository) SetFacebook(ctx context.Context, userID primitive.ObjectID, creds models.FacebookCredentials) (bool, error) {
	return r.set(ctx, userID, bson.M{"facebook_credentials": creds})
}

func (r *tenantRepository) set(ctx context.Context, userID primitive.ObjectID, fields bson.M) (bool, error) {
	result, err := r.c.UpdateOne(ctx, bson.M{"user_id": userID}, bson.M{"$set": fields})
	if err != nil {
		slog.Info(err.Error())
		return false, err
	}
	return result.MatchedCount > 0, nil
}

func (r *tenantRepository) Patch(ctx context.Context, userID primitive.ObjectID, patch models.CredentialsPatch, touch bool) (bool, bool, error) {
	fields := patchFields(patch)
	if touch {
		fields["updated_at"] = time.Now().UTC()
	}

	result, err := r.c.UpdateOne(ctx, bson.M{"user_id": userID}, bson.M{"$set": fields})
	if err != nil {
		slog.Info(err.Error())
		return false, false, err
	}
	return result.MatchedCount > 0, result.ModifiedCount > 0, nil
}

func (r *tenantRepository) ListByFacebookExpiry(ctx context.Context, from, to time.Time) ([]*models.Tenant, error) {
	filter := bson.M{"facebook_credentials.expiry_timestamp": bson.M{
		"$gte": from.Unix(),
		"$lte": to.Unix(),
	}}

	cursor, err := r.c.Find(ctx, filter)
	if err != nil {
		slog.Info(err.Error())
		return nil, err
	}
	defer cursor.Close(ctx)

	var tenants []*models.Tenant
	if err := cursor.All(ctx, &tenants); err != nil {
		slog.Info(err.Error())
		return nil, err
	}
	return tenants, nil
}

// patchFields maps a patch onto dotted $set paths so sibling fields survive.
func patchFields(p models.CredentialsPatch) bson.M {
	fields := bson.M{}
	if p.InstaAccessToken != nil {
		fields["insta_credentials.ACCESS_TOKENS"] = *p.InstaAccessToken
	}
	if p.IGUserID != nil {
		fields["insta_credentials.IG_USER_ID"] = *p.IGUserID
	}
	if p.PageID != nil {
		fields["facebook_credentials.PAGE_ID"] = *p.PageID
	}
	if p.FacebookAccess != nil {
		fields["facebook_credentials.FACEBOOK_ACCESS"] = *p.FacebookAccess
	}
	if p.ExpiryTimestamp != nil {
		fields["facebook_credentials.expiry_timestamp"] = *p.ExpiryTimestamp
	}
	return fields
}
