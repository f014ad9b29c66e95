package mongo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/99minutos/todo-system/internal/core/domain"
	"github.com/99minutos/todo-system/internal/core/ports"
)

// TodoRepository implements ports.TodoRepository on the todos collection.
type TodoRepository struct {
	col *mongo.Collection
	now func() time.Time
}

func NewTodoRepository(db *mongo.Database) *TodoRepository {
	return &TodoRepository{col: db.Collection(collectionTodos), now: time.Now}
}

type mongoTodo struct {
	ID          primitive.ObjectID `bson:"_id,omitempty"`
	Title       string             `bson:"title"`
	Description string             `bson:"description"`
	UserID      primitive.ObjectID `bson:"userId"`
	CreatedAt   time.Time          `bson:"createdAt"`
	UpdatedAt   time.Time          `bson:"updatedAt"`
}

func (mt *mongoTodo) toDomain() *domain.Todo {
	return &domain.Todo{
		ID:          mt.ID.Hex(),
		Title:       mt.Title,
		Description: mt.Description,
		OwnerID:     mt.UserID.Hex(),
		CreatedAt:   mt.CreatedAt.UTC(),
		UpdatedAt:   mt.UpdatedAt.UTC(),
	}
}

// ownedFilter builds the (id, owner) compound filter. A malformed id cannot
// match any document, so it is reported as not found.
func ownedFilter(id, ownerID string) (bson.M, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, domain.ErrTodoNotFound
	}
	owner, err := primitive.ObjectIDFromHex(ownerID)
	if err != nil {
		return nil, fmt.Errorf("owner id %q: %w", ownerID, err)
	}
	return bson.M{"_id": oid, "userId": owner}, nil
}

// Create inserts a new todo document.
func (r *TodoRepository) Create(ctx context.Context, t *domain.Todo) (*domain.Todo, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	owner, err := primitive.ObjectIDFromHex(t.OwnerID)
	if err != nil {
		return nil, fmt.Errorf("owner id %q: %w", t.OwnerID, err)
	}

	doc := mongoTodo{
		ID:          primitive.NewObjectID(),
		Title:       t.Title,
		Description: t.Description,
		UserID:      owner,
		CreatedAt:   t.CreatedAt,
		UpdatedAt:   t.UpdatedAt,
	}
	if _, err := r.col.InsertOne(ctx, doc); err != nil {
		return nil, fmt.Errorf("insert todo: %w", err)
	}
	return doc.toDomain(), nil
}

func (r *TodoRepository) FindByID(ctx context.Context, id, ownerID string) (*domain.Todo, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	filter, err := ownedFilter(id, ownerID)
	if err != nil {
		return nil, err
	}

	var mt mongoTodo
	if err := r.col.FindOne(ctx, filter).Decode(&mt); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domain.ErrTodoNotFound
		}
		return nil, fmt.Errorf("find todo: %w", err)
	}
	return mt.toDomain(), nil
}

// ListByOwner returns all of the owner's todos sorted by title ascending.
func (r *TodoRepository) ListByOwner(ctx context.Context, ownerID string) ([]*domain.Todo, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	owner, err := primitive.ObjectIDFromHex(ownerID)
	if err != nil {
		return nil, fmt.Errorf("owner id %q: %w", ownerID, err)
	}

	opts := options.Find().SetSort(bson.D{{Key: "title", Value: 1}})
	cursor, err := r.col.Find(ctx, bson.M{"userId": owner}, opts)
	if err != nil {
		return nil, fmt.Errorf("list todos: %w", err)
	}
	defer cursor.Close(ctx)

	todos := make([]*domain.Todo, 0)
	for cursor.Next(ctx) {
		var mt mongoTodo
		if err := cursor.Decode(&mt); err != nil {
			return nil, fmt.Errorf("decode todo: %w", err)
		}
		todos = append(todos, mt.toDomain())
	}
	if err := cursor.Err(); err != nil {
		return nil, fmt.Errorf("list todos: %w", err)
	}
	return todos, nil
}

// Update applies upd in one findAndModify so the ownership check and the
// write cannot be separated.
func (r *TodoRepository) Update(ctx context.Context, id, ownerID string, upd ports.TodoUpdate) (*domain.Todo, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	filter, err := ownedFilter(id, ownerID)
	if err != nil {
		return nil, err
	}

	set := bson.M{
		"title":     upd.Title,
		"updatedAt": r.now().UTC(),
	}
	if upd.Description != nil {
		set["description"] = *upd.Description
	}

	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	var mt mongoTodo
	if err := r.col.FindOneAndUpdate(ctx, filter, bson.M{"$set": set}, opts).Decode(&mt); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domain.ErrTodoNotFound
		}
		return nil, fmt.Errorf("update todo: %w", err)
	}
	return mt.toDomain(), nil
}

func (r *TodoRepository) Delete(ctx context.Context, id, ownerID string) error {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	filter, err := ownedFilter(id, ownerID)
	if err != nil {
		return err
	}

	res, err := r.col.DeleteOne(ctx, filter)
	if err != nil {
		return fmt.Errorf("delete todo: %w", err)
	}
	if res.DeletedCount == 0 {
		return domain.ErrTodoNotFound
	}
	return nil
}
