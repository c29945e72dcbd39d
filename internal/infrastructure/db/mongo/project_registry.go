package mongo

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/99minutos/link-dashboard/internal/core/domain"
)

const (
	collectionProjects = "projects"
	indexProjectSlug   = "uniq_project_slug"
	indexProjectDomain = "uniq_project_domain"
)

// ProjectRegistry implements ports.ProjectRegistry on MongoDB. Unique indexes
// on slug and domain enforce the registry-side uniqueness invariants.
type ProjectRegistry struct {
	col *mongo.Collection
}

func NewProjectRegistry(db *mongo.Database) *ProjectRegistry {
	return &ProjectRegistry{col: db.Collection(collectionProjects)}
}

type projectDoc struct {
	ID        primitive.ObjectID `bson:"_id,omitempty"`
	Slug      string             `bson:"slug"`
	Name      string             `bson:"name"`
	Domain    string             `bson:"domain"`
	OwnerID   string             `bson:"owner_id"`
	CreatedAt time.Time          `bson:"created_at"`
	UpdatedAt time.Time          `bson:"updated_at"`
}

func (d projectDoc) toDomain() *domain.Project {
	return &domain.Project{
		Slug:      d.Slug,
		Name:      d.Name,
		Domain:    d.Domain,
		OwnerID:   d.OwnerID,
		CreatedAt: d.CreatedAt.UTC(),
		UpdatedAt: d.UpdatedAt.UTC(),
	}
}

// Create inserts a new project document.
func (r *ProjectRegistry) Create(ctx context.Context, p *domain.Project) error {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	_, err := r.col.InsertOne(ctx, projectDoc{
		Slug:      p.Slug,
		Name:      p.Name,
		Domain:    p.Domain,
		OwnerID:   p.OwnerID,
		CreatedAt: p.CreatedAt,
		UpdatedAt: p.UpdatedAt,
	})
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			if strings.Contains(err.Error(), indexProjectDomain) {
				return domain.ErrDomainConflict
			}
			return domain.ErrProjectExists
		}
		return unavailable("insert project", err)
	}
	return nil
}

func (r *ProjectRegistry) FindBySlug(ctx context.Context, slug string) (*domain.Project, error) {
	return r.findOne(ctx, bson.M{"slug": slug})
}

// FindByDomain matches the domain exactly.
func (r *ProjectRegistry) FindByDomain(ctx context.Context, d string) (*domain.Project, error) {
	return r.findOne(ctx, bson.M{"domain": d})
}

// SwapDomain is a compare-and-swap on the project's current domain. A
// concurrent rename makes the filter miss; a domain taken by another
// project trips the unique index.
func (r *ProjectRegistry) SwapDomain(ctx context.Context, slug, oldDomain, newDomain string) (*domain.Project, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	filter := bson.M{"slug": slug, "domain": oldDomain}
	update := bson.M{"$set": bson.M{
		"domain":     newDomain,
		"updated_at": time.Now().UTC(),
	}}
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	var doc projectDoc
	err := r.col.FindOneAndUpdate(ctx, filter, update, opts).Decode(&doc)
	switch {
	case err == nil:
		return doc.toDomain(), nil
	case mongo.IsDuplicateKeyError(err):
		return nil, domain.ErrDomainConflict
	case errors.Is(err, mongo.ErrNoDocuments):
		if _, findErr := r.FindBySlug(ctx, slug); findErr != nil {
			return nil, findErr
		}
		return nil, domain.ErrConcurrentUpdate
	default:
		return nil, unavailable("swap domain", err)
	}
}

// EnsureIndexes creates the unique indexes on the projects collection.
func (r *ProjectRegistry) EnsureIndexes(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	indexes := []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "slug", Value: 1}},
			Options: options.Index().SetName(indexProjectSlug).SetUnique(true),
		},
		{
			Keys:    bson.D{{Key: "domain", Value: 1}},
			Options: options.Index().SetName(indexProjectDomain).SetUnique(true),
		},
		{Keys: bson.D{{Key: "owner_id", Value: 1}}},
	}

	_, err := r.col.Indexes().CreateMany(ctx, indexes)
	return err
}

func (r *ProjectRegistry) findOne(ctx context.Context, filter bson.M) (*domain.Project, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	var doc projectDoc
	if err := r.col.FindOne(ctx, filter).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domain.ErrProjectNotFound
		}
		return nil, unavailable("find project", err)
	}
	return doc.toDomain(), nil
}

func unavailable(op string, err error) error {
	return fmt.Errorf("mongo %s: %w: %w", op, domain.ErrStoreUnavailable, err)
}
