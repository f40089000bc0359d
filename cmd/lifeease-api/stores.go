package main

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/readpref"
	"go.uber.org/zap"

	"github.com/noah-isme/life-ease-api/internal/handler"
	"github.com/noah-isme/life-ease-api/internal/models"
	"github.com/noah-isme/life-ease-api/internal/repository"
	"github.com/noah-isme/life-ease-api/internal/repository/mongostore"
	"github.com/noah-isme/life-ease-api/pkg/config"
	"github.com/noah-isme/life-ease-api/pkg/database"
)

type userStore interface {
	FindByEmail(ctx context.Context, email string) (*models.User, error)
	FindByID(ctx context.Context, id string) (*models.User, error)
	Create(ctx context.Context, user *models.User) error
	UpdateProfile(ctx context.Context, user *models.User) error
	UpdateLastLogin(ctx context.Context, id string, ts time.Time) error
	SetRefreshToken(ctx context.Context, id string, token *string) error
	RotateRefreshToken(ctx context.Context, id, current, next string) (bool, error)
}

type taskStore interface {
	List(ctx context.Context, filter models.TaskFilter) ([]models.Task, error)
	ListOverdue(ctx context.Context, userID string, now time.Time) ([]models.Task, error)
	FindOwned(ctx context.Context, id, userID string) (*models.Task, error)
	Create(ctx context.Context, task *models.Task) error
	Update(ctx context.Context, task *models.Task) error
	Delete(ctx context.Context, id, userID string) error
}

type messageStore interface {
	ListForParticipant(ctx context.Context, userID string, limit int) ([]models.Message, error)
	FindForParticipant(ctx context.Context, id, userID string) (*models.Message, error)
	Create(ctx context.Context, msg *models.Message) error
	MarkSynced(ctx context.Context, id, userID string) error
	MarkRead(ctx context.Context, id, receiverID string, readAt time.Time) error
}

type waterStore interface {
	List(ctx context.Context, filter models.WaterEntryFilter) ([]models.WaterEntry, error)
	FindOwned(ctx context.Context, id, userID string) (*models.WaterEntry, error)
	Create(ctx context.Context, entry *models.WaterEntry) error
	Update(ctx context.Context, entry *models.WaterEntry) error
	Delete(ctx context.Context, id, userID string) error
}

// stores is the record store selected by STORE_DRIVER.
type stores struct {
	users    userStore
	tasks    taskStore
	messages messageStore
	water    waterStore

	ready handler.ReadinessCheck
	close func()
}

func openStores(ctx context.Context, cfg *config.Config, logr *zap.Logger) (*stores, error) {
	switch cfg.StoreDriver {
	case config.StoreDriverMongo:
		return openMongoStores(ctx, cfg, logr)
	default:
		return openPostgresStores(ctx, cfg, logr)
	}
}

func openPostgresStores(ctx context.Context, cfg *config.Config, logr *zap.Logger) (*stores, error) {
	db, err := database.NewPostgres(cfg.Database)
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}
	if cfg.Database.AutoMigrate {
		if err := database.Migrate(ctx, db); err != nil {
			_ = db.Close()
			return nil, err
		}
		logr.Info("database migrations applied")
	}

	return &stores{
		users:    repository.NewUserRepository(db),
		tasks:    repository.NewTaskRepository(db),
		messages: repository.NewMessageRepository(db),
		water:    repository.NewWaterRepository(db),
		ready:    func(ctx context.Context) error { return pingSQL(ctx, db) },
		close:    func() { _ = db.Close() },
	}, nil
}

func openMongoStores(ctx context.Context, cfg *config.Config, logr *zap.Logger) (*stores, error) {
	client, db, err := database.NewMongo(ctx, cfg.Mongo)
	if err != nil {
		return nil, err
	}
	store, err := mongostore.New(ctx, db)
	if err != nil {
		_ = client.Disconnect(context.Background())
		return nil, err
	}
	logr.Info("mongo store ready", zap.String("database", db.Name()))

	return &stores{
		users:    store.Users(),
		tasks:    store.Tasks(),
		messages: store.Messages(),
		water:    store.Water(),
		ready:    func(ctx context.Context) error { return pingMongo(ctx, client) },
		close:    func() { _ = client.Disconnect(context.Background()) },
	}, nil
}

func pingSQL(ctx context.Context, db *sqlx.DB) error {
	return db.PingContext(ctx)
}

func pingMongo(ctx context.Context, client *mongo.Client) error {
	return client.Ping(ctx, readpref.Primary())
}
