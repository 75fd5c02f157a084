package content

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const mongoCollection = "posts"

type mongoDraft struct {
	ID          string     `bson:"_id"`
	Title       string     `bson:"title"`
	Slug        string     `bson:"slug"`
	Excerpt     string     `bson:"excerpt"`
	Content     string     `bson:"content"`
	Tags        []string   `bson:"tags"`
	CoverImage  string     `bson:"cover_image"`
	SourceLink  string     `bson:"source_link"`
	Published   bool       `bson:"published"`
	PublishedAt *time.Time `bson:"published_at,omitempty"`
	Author      string     `bson:"author"`
	CreatedAt   time.Time  `bson:"created_at"`
	UpdatedAt   time.Time  `bson:"updated_at"`
}

func (m mongoDraft) draft() Draft {
	return Draft(m)
}

// MongoStore keeps drafts in a MongoDB collection.
type MongoStore struct {
	coll *mongo.Collection
	now  func() time.Time
}

// ConnectMongo opens a client and returns the named database.
func ConnectMongo(ctx context.Context, uri, database string) (*mongo.Database, error) {
	if uri == "" {
		return nil, errors.New("mongodb URI is required")
	}
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("connect mongodb: %w", err)
	}
	pingCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx, nil); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("ping mongodb: %w", err)
	}
	return client.Database(database), nil
}

func NewMongoStore(db *mongo.Database) *MongoStore {
	return &MongoStore{coll: db.Collection(mongoCollection), now: time.Now}
}

// EnsureIndexes creates the unique slug index and the lookup indexes.
func (s *MongoStore) EnsureIndexes(ctx context.Context) error {
	_, err := s.coll.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "slug", Value: 1}}, Options: options.Index().SetUnique(true)},
		{Keys: bson.D{{Key: "author", Value: 1}, {Key: "published", Value: 1}, {Key: "created_at", Value: 1}}},
		{Keys: bson.D{{Key: "source_link", Value: 1}}},
	})
	if err != nil {
		return fmt.Errorf("create draft indexes: %w", err)
	}
	return nil
}

func (s *MongoStore) Create(ctx context.Context, draft Draft) (Draft, error) {
	if draft.ID == "" {
		draft.ID = uuid.NewString()
	}
	now := s.now().UTC()
	if draft.CreatedAt.IsZero() {
		draft.CreatedAt = now
	}
	draft.UpdatedAt = now
	if draft.Tags == nil {
		draft.Tags = []string{}
	}
	if _, err := s.coll.InsertOne(ctx, mongoDraft(draft)); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return Draft{}, fmt.Errorf("insert draft %q: %w", draft.Slug, ErrSlugConflict)
		}
		return Draft{}, fmt.Errorf("insert draft: %w", err)
	}
	return draft, nil
}

func (s *MongoStore) Get(ctx context.Context, id string) (Draft, error) {
	var doc mongoDraft
	err := s.coll.FindOne(ctx, bson.M{"_id": id}).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return Draft{}, ErrNotFound
	}
	if err != nil {
		return Draft{}, fmt.Errorf("get draft: %w", err)
	}
	return doc.draft(), nil
}

func (s *MongoStore) SlugExists(ctx context.Context, slug string) (bool, error) {
	return s.exists(ctx, "slug lookup", bson.M{"slug": slug})
}

func (s *MongoStore) SourceLinkExists(ctx context.Context, link string) (bool, error) {
	return s.exists(ctx, "source link lookup", bson.M{"source_link": link})
}

func (s *MongoStore) ContentContains(ctx context.Context, fragment string) (bool, error) {
	return s.exists(ctx, "content lookup", bson.M{
		"content": primitive.Regex{Pattern: regexp.QuoteMeta(fragment)},
	})
}

func (s *MongoStore) TitleContains(ctx context.Context, phrase string) (bool, error) {
	return s.exists(ctx, "title lookup", bson.M{
		"title": primitive.Regex{Pattern: regexp.QuoteMeta(phrase), Options: "i"},
	})
}

func (s *MongoStore) exists(ctx context.Context, what string, filter bson.M) (bool, error) {
	n, err := s.coll.CountDocuments(ctx, filter, options.Count().SetLimit(1))
	if err != nil {
		return false, fmt.Errorf("%s: %w", what, err)
	}
	return n > 0, nil
}

func (s *MongoStore) ListPending(ctx context.Context, author string, cutoff time.Time) ([]Draft, error) {
	cur, err := s.coll.Find(ctx, bson.M{
		"author":     author,
		"published":  false,
		"created_at": bson.M{"$lt": cutoff},
	}, options.Find().SetSort(bson.D{{Key: "created_at", Value: 1}}))
	if err != nil {
		return nil, fmt.Errorf("list pending drafts: %w", err)
	}
	defer cur.Close(ctx)

	var drafts []Draft
	for cur.Next(ctx) {
		var doc mongoDraft
		if err := cur.Decode(&doc); err != nil {
			return nil, fmt.Errorf("decode draft: %w", err)
		}
		drafts = append(drafts, doc.draft())
	}
	if err := cur.Err(); err != nil {
		return nil, fmt.Errorf("iterate drafts: %w", err)
	}
	return drafts, nil
}

func (s *MongoStore) Publish(ctx context.Context, id string, at time.Time) (bool, error) {
	at = at.UTC()
	res, err := s.coll.UpdateOne(ctx,
		bson.M{"_id": id, "published": false},
		bson.M{"$set": bson.M{"published": true, "published_at": at, "updated_at": at}},
	)
	if err != nil {
		return false, fmt.Errorf("publish draft: %w", err)
	}
	return res.ModifiedCount > 0, nil
}

func (s *MongoStore) Delete(ctx context.Context, id string) (bool, error) {
	res, err := s.coll.DeleteOne(ctx, bson.M{"_id": id, "published": false})
	if err != nil {
		return false, fmt.Errorf("delete draft: %w", err)
	}
	return res.DeletedCount > 0, nil
}
