package storage

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"regexp"
	"strings"
	"time"

	"github.com/lehigh-university-libraries/book-inventory/internal/models"
	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
	"go.mongodb.org/mongo-driver/v2/mongo/readpref"
)

const (
	DefaultMongoURI      = "mongodb://localhost:27017/book-inventory"
	DefaultMongoDatabase = "book-inventory"
	booksCollection      = "books"
)

// bookDocument is the layout of a book in the books collection
type bookDocument struct {
	ID             bson.ObjectID `bson:"_id,omitempty"`
	Title          string        `bson:"title"`
	Author         string        `bson:"author"`
	GradeLevel     string        `bson:"gradeLevel,omitempty"`
	Subject        string        `bson:"subject,omitempty"`
	Series         string        `bson:"series,omitempty"`
	CoverImage     []byte        `bson:"coverImage,omitempty"`
	CoverImageType string        `bson:"coverImageType,omitempty"`
	CreatedAt      time.Time     `bson:"createdAt"`
}

func (d bookDocument) toBook() models.Book {
	return models.Book{
		ID:             d.ID.Hex(),
		Title:          d.Title,
		Author:         d.Author,
		GradeLevel:     d.GradeLevel,
		Subject:        d.Subject,
		Series:         d.Series,
		CoverImage:     d.CoverImage,
		CoverImageType: d.CoverImageType,
		CreatedAt:      d.CreatedAt.UTC(),
	}
}

// MongoStore keeps books in a MongoDB collection
type MongoStore struct {
	client *mongo.Client
	books  *mongo.Collection
}

// OpenMongo connects to uri and verifies the server is reachable. When
// database is empty the name is taken from the URI path.
func OpenMongo(ctx context.Context, uri, database string) (*MongoStore, error) {
	if uri == "" {
		uri = DefaultMongoURI
	}
	if database == "" {
		database = databaseFromURI(uri)
	}

	client, err := mongo.Connect(options.Client().ApplyURI(uri))
	if err != nil {
		return nil, &StoreError{Op: "connect", Err: fmt.Errorf("failed to create mongo client: %w", err)}
	}
	if err := client.Ping(ctx, readpref.Primary()); err != nil {
		_ = client.Disconnect(ctx)
		return nil, &StoreError{Op: "connect", Err: fmt.Errorf("failed to reach mongo: %w", err)}
	}

	slog.Info("MongoDB connected", "database", database)
	return &MongoStore{
		client: client,
		books:  client.Database(database).Collection(booksCollection),
	}, nil
}

func (s *MongoStore) List(ctx context.Context) ([]models.Book, error) {
	books, err := s.find(ctx, bson.D{}, newestFirstOptions())
	if err != nil {
		return nil, &StoreError{Op: "list", Err: err}
	}
	return books, nil
}

func (s *MongoStore) Add(ctx context.Context, book models.Book) (models.Book, error) {
	doc := bookDocument{
		ID:             bson.NewObjectID(),
		Title:          book.Title,
		Author:         book.Author,
		GradeLevel:     book.GradeLevel,
		Subject:        book.Subject,
		Series:         book.Series,
		CoverImage:     book.CoverImage,
		CoverImageType: book.CoverImageType,
		CreatedAt:      now(),
	}
	if _, err := s.books.InsertOne(ctx, doc); err != nil {
		return models.Book{}, &StoreError{Op: "add", Err: err}
	}
	return doc.toBook(), nil
}

func (s *MongoStore) Search(ctx context.Context, query string) ([]models.Book, error) {
	books, err := s.find(ctx, searchFilter(query), newestFirstOptions())
	if err != nil {
		return nil, &StoreError{Op: "search", Err: err}
	}
	return books, nil
}

func (s *MongoStore) Delete(ctx context.Context, id string) error {
	oid, err := bson.ObjectIDFromHex(id)
	if err != nil {
		// Nothing can be stored under a malformed id
		slog.Debug("Ignoring delete for malformed id", "id", id)
		return nil
	}
	if _, err := s.books.DeleteOne(ctx, bson.M{"_id": oid}); err != nil {
		return &StoreError{Op: "delete", Err: err}
	}
	return nil
}

func (s *MongoStore) Close(ctx context.Context) error {
	return s.client.Disconnect(ctx)
}

func (s *MongoStore) find(ctx context.Context, filter any, opts ...options.Lister[options.FindOptions]) ([]models.Book, error) {
	cursor, err := s.books.Find(ctx, filter, opts...)
	if err != nil {
		return nil, err
	}
	var docs []bookDocument
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, err
	}

	books := make([]models.Book, 0, len(docs))
	for _, d := range docs {
		books = append(books, d.toBook())
	}
	return books, nil
}

// newestFirstOptions sorts by createdAt descending. ObjectIDs generated by this
// process increase, so _id breaks ties within a millisecond.
func newestFirstOptions() *options.FindOptionsBuilder {
	return options.Find().SetSort(newestFirstSort)
}

var newestFirstSort = bson.D{{Key: "createdAt", Value: -1}, {Key: "_id", Value: -1}}

// searchFilter matches query literally and case-insensitively against
// title, author and subject
func searchFilter(query string) bson.M {
	pattern := bson.Regex{Pattern: regexp.QuoteMeta(query), Options: "i"}
	return bson.M{"$or": bson.A{
		bson.M{"title": pattern},
		bson.M{"author": pattern},
		bson.M{"subject": pattern},
	}}
}

func databaseFromURI(uri string) string {
	u, err := url.Parse(uri)
	if err != nil {
		return DefaultMongoDatabase
	}
	if name := strings.Trim(u.Path, "/"); name != "" {
		return name
	}
	return DefaultMongoDatabase
}
