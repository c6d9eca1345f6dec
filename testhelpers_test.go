//go:build integration

package main_test

import (
	"context"
	"encoding/json"
	"fmt"
	"net"
	"testing"
	"time"

	"github.com/google/uuid"
	kafkago "github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	kafkamodule "github.com/testcontainers/testcontainers-go/modules/kafka"
	"github.com/testcontainers/testcontainers-go/wait"
	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"github.com/chennai-transit/service-pass/internal/application"
	"github.com/chennai-transit/service-pass/internal/domain/route"
	passEvents "github.com/chennai-transit/service-pass/internal/events"
	"github.com/chennai-transit/service-pass/internal/geo"
	"github.com/chennai-transit/service-pass/internal/pkg/kafka"
	"github.com/chennai-transit/service-pass/internal/repository"
)

// testInfra holds shared test infrastructure.
type testInfra struct {
	DB           *gorm.DB
	KafkaBrokers []string
	Cleanup      func()
}

// passStack holds wired-up pass service components.
type passStack struct {
	Passes          *application.PassService
	Renewals        *application.RenewalService
	Consumer        *passEvents.PaymentEventConsumer
	CleanupProducer func()
}

// nopMailer satisfies the mailer interface without talking to SMTP.
type nopMailer struct{}

func (nopMailer) SendDecision(to, riderName, passNumber, status, note string) error { return nil }
func (nopMailer) SendActivation(to, riderName, passNumber string, validUntil time.Time) error {
	return nil
}
func (nopMailer) SendExpiry(to, riderName, passNumber string, expiredAt time.Time) error { return nil }

// setupContainers starts PostgreSQL and Kafka testcontainers and returns a connected GORM DB.
func setupContainers(t *testing.T) *testInfra {
	t.Helper()
	ctx := context.Background()

	pgReq := testcontainers.ContainerRequest{
		Image:        "postgres:16-alpine",
		ExposedPorts: []string{"5432/tcp"},
		Env: map[string]string{
			"POSTGRES_USER":     "test",
			"POSTGRES_PASSWORD": "test",
			"POSTGRES_DB":       "test_pass",
		},
		WaitingFor: wait.ForLog("database system is ready to accept connections").
			WithOccurrence(2).
			WithStartupTimeout(60 * time.Second),
	}
	pgContainer, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: pgReq,
		Started:          true,
	})
	require.NoError(t, err, "failed to start PostgreSQL container")

	pgHost, err := pgContainer.Host(ctx)
	require.NoError(t, err)
	pgPort, err := pgContainer.MappedPort(ctx, "5432")
	require.NoError(t, err)

	dsn := fmt.Sprintf("host=%s port=%s user=test password=test dbname=test_pass sslmode=disable", pgHost, pgPort.Port())

	// Poll until GORM can actually connect and ping.
	var db *gorm.DB
	require.Eventually(t, func() bool {
		var err error
		db, err = gorm.Open(postgres.Open(dsn), &gorm.Config{})
		if err != nil {
			return false
		}
		sqlDB, err := db.DB()
		if err != nil {
			return false
		}
		return sqlDB.Ping() == nil
	}, 30*time.Second, 1*time.Second, "PostgreSQL not ready for connections")

	require.NoError(t, db.Exec(`CREATE EXTENSION IF NOT EXISTS "uuid-ossp"`).Error)
	require.NoError(t, db.AutoMigrate(
		&repository.RiderModel{},
		&repository.PassModel{},
		&repository.RenewalModel{},
		&repository.DocumentModel{},
	))

	// Start Kafka container using confluent-local (supports KRaft natively).
	kafkaContainer, err := kafkamodule.Run(ctx, "confluentinc/confluent-local:7.5.0")
	require.NoError(t, err, "failed to start Kafka container")

	kafkaBrokers, err := kafkaContainer.Brokers(ctx)
	require.NoError(t, err, "failed to get Kafka brokers")

	// Pre-create required topics.
	createTopics(t, kafkaBrokers, passEvents.TopicPassEvents, passEvents.TopicPaymentEvents)

	cleanup := func() {
		if err := kafkaContainer.Terminate(ctx); err != nil {
			t.Logf("failed to terminate Kafka container: %v", err)
		}
		if err := pgContainer.Terminate(ctx); err != nil {
			t.Logf("failed to terminate PostgreSQL container: %v", err)
		}
	}

	return &testInfra{
		DB:           db,
		KafkaBrokers: kafkaBrokers,
		Cleanup:      cleanup,
	}
}

// setupPassStack wires up the pass service stack behind the payment consumer.
func setupPassStack(t *testing.T, db *gorm.DB, brokers []string) *passStack {
	t.Helper()
	logger, _ := zap.NewDevelopment()

	riderRepo := repository.NewGormRiderRepository(db)
	passRepo := repository.NewGormPassRepository(db)
	renewalRepo := repository.NewGormRenewalRepository(db)

	schedule := route.NewFareSchedule()
	bounds := route.Bounds{MinLat: 12.9, MinLon: 80.1, MaxLat: 13.3, MaxLon: 80.4}
	resolver := geo.NewNominatimResolver("http://localhost:1", "Chennai", bounds, logger)
	routing := geo.NewOSRMClient("http://localhost:1")
	routes := application.NewRouteService(resolver, routing, schedule, logger)

	producer := kafka.NewProducer(brokers, logger)
	mailer := nopMailer{}
	passSvc := application.NewPassService(passRepo, renewalRepo, riderRepo, routes, producer, mailer, logger)
	renewalSvc := application.NewRenewalService(renewalRepo, passRepo, riderRepo, routes, schedule, producer, mailer, logger)
	applier := application.NewPaymentApplier(passSvc, renewalSvc, logger)

	groupID := fmt.Sprintf("test-pass-%s", uuid.New().String()[:8])
	consumer := passEvents.NewPaymentEventConsumer(brokers, groupID, applier, logger)

	return &passStack{
		Passes:          passSvc,
		Renewals:        renewalSvc,
		Consumer:        consumer,
		CleanupProducer: func() { _ = producer.Close() },
	}
}

// seedRider inserts a rider account for testing.
func seedRider(t *testing.T, db *gorm.DB, riderID uuid.UUID) {
	t.Helper()
	now := time.Now().UTC()
	model := repository.RiderModel{
		ID:           riderID,
		Name:         "Test Rider",
		Email:        fmt.Sprintf("rider-%s@test.example", riderID.String()[:8]),
		PasswordHash: "$2a$10$N9qo8uLOickgx2ZMRZoMyeIjZAgcfl7p92ldGxad68LJZdL17lhWy",
		Phone:        "+914412345678",
		Category:     "general",
		Role:         "rider",
		Status:       "active",
		Version:      1,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	require.NoError(t, db.Create(&model).Error, "failed to seed rider")
}

// seedApprovedPass inserts an approved pass with a payment order attached.
func seedApprovedPass(t *testing.T, db *gorm.DB, passID, riderID uuid.UUID, orderID string) {
	t.Helper()
	now := time.Now().UTC()
	decided := now.Add(-10 * time.Minute)

	snapshot, _ := json.Marshal(map[string]interface{}{
		"start_label": "Thiruvanmiyur",
		"end_label":   "Chennai Central",
		"start_lat":   12.9830, "start_lon": 80.2594,
		"end_lat": 13.0827, "end_lon": 80.2757,
		"distance_km": 12.4,
		"base_fare":   500,
	})

	model := repository.PassModel{
		ID:             passID,
		PassNumber:     fmt.Sprintf("BP-INT%s", uuid.New().String()[:6]),
		RiderID:        riderID,
		Status:         "approved",
		RouteSnapshot:  snapshot,
		Category:       "general",
		DurationMonths: 1,
		Fare:           500,
		Currency:       "INR",
		DecidedAt:      &decided,
		DecisionNote:   "integration test",
		PaymentOrderID: &orderID,
		Version:        2,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	require.NoError(t, db.Create(&model).Error, "failed to seed pass")
}

// publishTestEvent publishes a CloudEvent to Kafka.
func publishTestEvent(t *testing.T, brokers []string, topic, source, eventType string, data interface{}) {
	t.Helper()
	logger, _ := zap.NewDevelopment()
	producer := kafka.NewProducer(brokers, logger)
	defer func() { _ = producer.Close() }()

	ce, err := kafka.NewCloudEvent(source, eventType, data)
	require.NoError(t, err, "failed to create cloud event")

	err = producer.PublishEvent(context.Background(), topic, ce)
	require.NoError(t, err, "failed to publish event")
}

// waitForPassStatus polls the passes table until the status matches.
func waitForPassStatus(t *testing.T, db *gorm.DB, passID uuid.UUID, expectedStatus string, timeout time.Duration) repository.PassModel {
	t.Helper()
	var result repository.PassModel
	require.Eventually(t, func() bool {
		var model repository.PassModel
		err := db.Where("id = ?", passID).First(&model).Error
		if err != nil {
			return false
		}
		if model.Status == expectedStatus {
			result = model
			return true
		}
		return false
	}, timeout, 200*time.Millisecond, "pass did not transition to %s", expectedStatus)
	return result
}

// consumeOneEvent reads from a Kafka topic until it finds an event of the expected type.
func consumeOneEvent(t *testing.T, brokers []string, topic, expectedType string, timeout time.Duration) kafka.CloudEvent {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	groupID := fmt.Sprintf("test-assert-%s", uuid.New().String()[:8])
	reader := kafkago.NewReader(kafkago.ReaderConfig{
		Brokers:     brokers,
		GroupID:     groupID,
		Topic:       topic,
		MinBytes:    1,
		MaxBytes:    10e6,
		StartOffset: kafkago.FirstOffset,
	})
	defer func() { _ = reader.Close() }()

	for {
		msg, err := reader.ReadMessage(ctx)
		if err != nil {
			if ctx.Err() != nil {
				t.Fatalf("timed out waiting for event type %q on topic %q", expectedType, topic)
			}
			continue
		}
		ce, err := kafka.ParseCloudEvent(msg.Value)
		if err != nil {
			continue
		}
		if ce.Type == expectedType {
			return ce
		}
	}
}

// createTopics pre-creates Kafka topics so producers don't fail with "Unknown Topic".
func createTopics(t *testing.T, brokers []string, topics ...string) {
	t.Helper()
	conn, err := kafkago.Dial("tcp", brokers[0])
	require.NoError(t, err, "failed to dial Kafka for topic creation")
	defer conn.Close()

	controller, err := conn.Controller()
	require.NoError(t, err, "failed to get Kafka controller")

	controllerConn, err := kafkago.Dial("tcp", net.JoinHostPort(controller.Host, fmt.Sprintf("%d", controller.Port)))
	require.NoError(t, err, "failed to connect to Kafka controller")
	defer controllerConn.Close()

	topicConfigs := make([]kafkago.TopicConfig, len(topics))
	for i, topic := range topics {
		topicConfigs[i] = kafkago.TopicConfig{
			Topic:             topic,
			NumPartitions:     1,
			ReplicationFactor: 1,
		}
	}
	err = controllerConn.CreateTopics(topicConfigs...)
	require.NoError(t, err, "failed to create Kafka topics")

	// Give Kafka a moment to propagate topic metadata.
	time.Sleep(1 * time.Second)
}
