// The stream processor consumes DynamoDB stream INSERT records and applies
// the side effects new rows call for: activity counters on the author's
// profile and debounced notification emails to the rest of the family.
package main

import (
	"context"
	"log"

	"github.com/aws/aws-lambda-go/events"
	"github.com/aws/aws-lambda-go/lambda"
	"go.uber.org/zap"

	"holdthatthought-backend/application/services"
	"holdthatthought-backend/infrastructure/di"
)

var container *di.Container

func init() {
	var err error
	container, err = di.InitializeContainer(context.Background())
	if err != nil {
		log.Fatalf("Failed to initialize container: %v", err)
	}
}

// Handler processes one stream batch. Per-record failures are logged and
// skipped inside the services so a poison record never blocks the shard.
func Handler(ctx context.Context, event events.DynamoDBEvent) error {
	for _, record := range event.Records {
		if record.EventName != "INSERT" {
			continue
		}

		insert := decodeInsert(record)
		if insert.PK == "" {
			continue
		}

		container.ActivityService.Process(ctx, insert)
		container.NotificationService.Process(ctx, insert)
	}

	container.Logger.Debug("Stream batch processed",
		zap.Int("records", len(event.Records)),
	)
	return nil
}

// decodeInsert flattens the new image's string attributes. Non-string
// attributes (counters, flags, lists) are not needed by the processors.
func decodeInsert(record events.DynamoDBEventRecord) services.StreamInsert {
	image := record.Change.NewImage
	insert := services.StreamInsert{Fields: make(map[string]string, len(image))}

	for name, value := range image {
		if value.DataType() != events.DataTypeString {
			continue
		}
		switch name {
		case "PK":
			insert.PK = value.String()
		case "SK":
			insert.SK = value.String()
		default:
			insert.Fields[name] = value.String()
		}
	}
	return insert
}

func main() {
	lambda.Start(Handler)
}
