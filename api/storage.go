package main

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

var (
	errNotFound       = errors.New("record not found")
	errDuplicateEmail = errors.New("a user with this email address already exists")
)

// store is the single source of truth for users and tasks. All task
// operations are scoped by the owning user's id; a task id belonging to a
// different user behaves exactly like a missing one.
type store interface {
	createUser(u *user) error
	getUserByEmail(email string) (*user, error)
	getUserByID(id string) (*user, error)
	updateUser(u *user) error
	listUsers() ([]user, error)

	createTask(t *task) error
	getTask(userID, id string) (*task, error)
	listTasks(userID string) ([]task, error)
	updateTask(userID, id string, patch taskPatch) (*task, error)
	deleteTask(userID, id string) error
}

func openMongo(cfg config) (*mongo.Client, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(cfg.db.uri))
	if err != nil {
		return nil, err
	}
	if err := client.Ping(ctx, nil); err != nil {
		return nil, err
	}
	return client, nil
}

type mongoStore struct {
	users *mongo.Collection
	tasks *mongo.Collection
}

func newMongoStore(client *mongo.Client, database string) (*mongoStore, error) {
	db := client.Database(database)
	s := &mongoStore{
		users: db.Collection("users"),
		tasks: db.Collection("tasks"),
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	_, err := s.users.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "email", Value: 1}},
		Options: options.Index().SetUnique(true),
	})
	if err != nil {
		return nil, err
	}
	_, err = s.tasks.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "user_id", Value: 1}},
	})
	if err != nil {
		return nil, err
	}
	return s, nil
}

func (s *mongoStore) createUser(u *user) error {
	u.ID = uuid.NewString()
	u.CreatedAt = time.Now()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	_, err := s.users.InsertOne(ctx, u)
	if mongo.IsDuplicateKeyError(err) {
		return errDuplicateEmail
	}
	return err
}

func (s *mongoStore) getUserByEmail(email string) (*user, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	var u user
	err := s.users.FindOne(ctx, bson.M{"email": email}).Decode(&u)
	if err != nil {
		switch {
		case errors.Is(err, mongo.ErrNoDocuments):
			return nil, nil
		default:
			return nil, err
		}
	}
	return &u, nil
}

func (s *mongoStore) getUserByID(id string) (*user, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	var u user
	err := s.users.FindOne(ctx, bson.M{"_id": id}).Decode(&u)
	if err != nil {
		switch {
		case errors.Is(err, mongo.ErrNoDocuments):
			return nil, nil
		default:
			return nil, err
		}
	}
	return &u, nil
}

func (s *mongoStore) updateUser(u *user) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	res, err := s.users.ReplaceOne(ctx, bson.M{"_id": u.ID}, u)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return errDuplicateEmail
		}
		return err
	}
	if res.MatchedCount == 0 {
		return errNotFound
	}
	return nil
}

func (s *mongoStore) listUsers() ([]user, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	cursor, err := s.users.Find(ctx, bson.M{})
	if err != nil {
		return nil, err
	}
	var users []user
	if err := cursor.All(ctx, &users); err != nil {
		return nil, err
	}
	return users, nil
}

func (s *mongoStore) createTask(t *task) error {
	t.ID = uuid.NewString()
	t.CreatedAt = time.Now()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	_, err := s.tasks.InsertOne(ctx, t)
	return err
}

func (s *mongoStore) getTask(userID, id string) (*task, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	var t task
	err := s.tasks.FindOne(ctx, bson.M{"_id": id, "user_id": userID}).Decode(&t)
	if err != nil {
		switch {
		case errors.Is(err, mongo.ErrNoDocuments):
			return nil, errNotFound
		default:
			return nil, err
		}
	}
	return &t, nil
}

func (s *mongoStore) listTasks(userID string) ([]task, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	cursor, err := s.tasks.Find(ctx, bson.M{"user_id": userID})
	if err != nil {
		return nil, err
	}
	var tasks []task
	if err := cursor.All(ctx, &tasks); err != nil {
		return nil, err
	}
	return tasks, nil
}

func (s *mongoStore) updateTask(userID, id string, patch taskPatch) (*task, error) {
	// An empty patch is a read: the stored task comes back unchanged.
	if patch.isEmpty() {
		return s.getTask(userID, id)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	update := bson.M{"$set": patch.updateDoc()}
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	var t task
	err := s.tasks.FindOneAndUpdate(ctx, bson.M{"_id": id, "user_id": userID}, update, opts).Decode(&t)
	if err != nil {
		switch {
		case errors.Is(err, mongo.ErrNoDocuments):
			return nil, errNotFound
		default:
			return nil, err
		}
	}
	return &t, nil
}

func (s *mongoStore) deleteTask(userID, id string) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	res, err := s.tasks.DeleteOne(ctx, bson.M{"_id": id, "user_id": userID})
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return errNotFound
	}
	return nil
}

func (p taskPatch) updateDoc() bson.M {
	doc := bson.M{}
	if p.Title != nil {
		doc["title"] = *p.Title
	}
	if p.Description != nil {
		doc["description"] = *p.Description
	}
	if p.Completed != nil {
		doc["completed"] = *p.Completed
	}
	if p.DueDate != nil {
		doc["due_date"] = *p.DueDate
	}
	if p.Priority != nil {
		doc["priority"] = *p.Priority
	}
	if p.Category != nil {
		doc["category"] = *p.Category
	}
	if p.ReminderSent != nil {
		doc["reminder_sent"] = *p.ReminderSent
	}
	return doc
}
