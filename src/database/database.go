package database

import (
	"context"
	"sync"
	"time"

	"github.com/juju/errors"
	"github.com/juju/loggo"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
)

var logger = loggo.GetLogger("feedback.database")

const (
	FormsCollectionName    = "forms"
	FeedbackCollectionName = "feedback"
)

var (
	client     *mongo.Client
	once       sync.Once // ป้องกันการรัน ConnectMongoDB() ซ้ำ
	connectErr error

	Database           *mongo.Database
	FormCollection     *mongo.Collection
	FeedbackCollection *mongo.Collection
)

// ConnectMongoDB เชื่อมต่อกับ MongoDB แค่ครั้งเดียว
func ConnectMongoDB(ctx context.Context, uri, dbName string) error {
	if uri == "" {
		return errors.NotValidf("empty MongoDB URI")
	}

	once.Do(func() {
		clientOptions := options.Client().
			ApplyURI(uri).
			SetAppName("feedback-api").
			SetServerSelectionTimeout(10 * time.Second)

		client, connectErr = mongo.Connect(ctx, clientOptions)
		if connectErr != nil {
			connectErr = errors.Annotate(connectErr, "connecting to MongoDB")
			return
		}

		// ตรวจสอบการเชื่อมต่อ
		if connectErr = client.Ping(ctx, readpref.Primary()); connectErr != nil {
			connectErr = errors.Annotate(connectErr, "pinging MongoDB")
			return
		}

		Database = client.Database(dbName)
		FormCollection = Database.Collection(FormsCollectionName)
		FeedbackCollection = Database.Collection(FeedbackCollectionName)
		logger.Infof("MongoDB connected, database %q", dbName)
	})

	return connectErr
}

// Client returns the shared client, nil before ConnectMongoDB succeeds.
func Client() *mongo.Client {
	return client
}

// Ping checks the primary is reachable.
func Ping(ctx context.Context) error {
	if client == nil {
		return errors.New("MongoDB client is nil")
	}
	return client.Ping(ctx, readpref.Primary())
}

// Disconnect closes the shared client.
func Disconnect(ctx context.Context) error {
	if client == nil {
		return nil
	}
	return errors.Trace(client.Disconnect(ctx))
}
