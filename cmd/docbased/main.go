// Copyright 2021 Dalarub & Ettrich GmbH - All Rights Reserved
// Unauthorized copying of this file, via any medium is strictly prohibited
// Proprietary and confidential
// info@dalarub.com
//

package main

import (
	"context"
	"embed"
	"log"
	"strings"

	"github.com/joeshaw/envdecode"
	kafka "github.com/segmentio/kafka-go"

	"github.com/dalarub/docbase/adapter"
	"github.com/dalarub/docbase/adapter/memory"
	"github.com/dalarub/docbase/adapter/postgres"
	"github.com/dalarub/docbase/cache"
	"github.com/dalarub/docbase/cache/memorycache"
	"github.com/dalarub/docbase/cache/rediscache"
	"github.com/dalarub/docbase/core/access"
	"github.com/dalarub/docbase/core/csql"
	"github.com/dalarub/docbase/core/logger"
	"github.com/dalarub/docbase/core/pointers"
	"github.com/dalarub/docbase/core/schema"
	"github.com/dalarub/docbase/database"
	"github.com/dalarub/docbase/model"
)

//go:embed config
var configFS embed.FS

// Service holds this example's own configuration, decoded from the
// environment the way every kurbisio-derived binary decodes its Service
// struct.
//
// use POSTGRES="host=localhost port=5432 user=postgres dbname=postgres sslmode=disable"
// and POSTGRES_PASSWORD="docker"
type Service struct {
	Postgres         string `env:"POSTGRES,optional" description:"connection string for the Postgres DB without password; omit to run against the in-memory reference adapter"`
	PostgresPassword string `env:"POSTGRES_PASSWORD,optional" description:"password to the Postgres DB"`
	RedisAddr        string `env:"REDIS_ADDR,optional" description:"redis address; omit to run against the in-memory reference cache"`
	KafkaBrokers     string `env:"KAFKA_BROKERS,optional" description:"comma-separated kafka brokers to mirror events onto; omit to disable the outbox mirror"`
	KafkaTopic       string `env:"KAFKA_TOPIC,optional" description:"kafka topic the event mirror writes to" default:"docbase-events"`
	Namespace        string `env:"NAMESPACE,optional" description:"cache-key namespace" default:"default"`
}

// exampleConfig is the shape validated against config/service.schema.json
// before anything is wired, the same fail-fast-on-bad-configuration posture
// kurbisio's own jsonValidator-backed resource configuration takes.
type exampleConfig struct {
	Collection string `json:"collection"`
}

func validateExampleConfig() {
	validator, err := schema.NewValidatorFromFS(configFS)
	if err != nil {
		log.Fatalln("invalid embedded schema bundle:", err)
	}
	if !validator.HasSchema("https://docbase/service") {
		log.Fatalln("embedded schema bundle is missing the service schema")
	}
	cfg := exampleConfig{Collection: "books"}
	if err := validator.ValidateStruct(cfg, "https://docbase/service"); err != nil {
		log.Fatalln("example configuration failed validation:", err)
	}
}

func openAdapter(service *Service) adapter.Adapter {
	if service.Postgres == "" {
		logger.Default().Infoln("no POSTGRES configured, running against the in-memory reference adapter")
		return memory.New()
	}
	db := csql.OpenWithSchema(service.Postgres, service.PostgresPassword, "docbase")
	return postgres.New(db)
}

func openCache(service *Service) cache.Cache {
	if service.RedisAddr == "" {
		logger.Default().Infoln("no REDIS_ADDR configured, running against the in-memory reference cache")
		return memorycache.New()
	}
	return rediscache.Open(service.RedisAddr, "", 0)
}

func main() {
	service := &Service{}
	if err := envdecode.Decode(service); err != nil {
		log.Fatalln(err)
	}
	validateExampleConfig()

	builder := &database.Builder{
		Adapter:   openAdapter(service),
		Cache:     openCache(service),
		Oracle:    access.NewStaticOracle(&access.Identity{Subject: "demo-user", Roles: []string{"admin"}}),
		Namespace: service.Namespace,
	}
	if service.KafkaBrokers != "" {
		builder.KafkaWriter = &kafka.Writer{
			Addr:     kafka.TCP(strings.Split(service.KafkaBrokers, ",")...),
			Topic:    service.KafkaTopic,
			Balancer: &kafka.LeastBytes{},
		}
	}

	db := database.New(builder)
	db.On(database.EventAll, func(event string, args interface{}) {
		logger.Default().Debugln("event:", event)
	})

	ctx := context.Background()
	seedCollections(ctx, db)

	book := model.NewDocument()
	book.SetAttribute("title", "The Go Programming Language", model.SetAssign)
	book.SetAttribute("author", "Donovan & Kernighan", model.SetAssign)
	book.SetAttribute(model.AttributePermissions, []interface{}{
		`read("any")`, `update("any")`, `delete("role:admin")`,
	}, model.SetAssign)

	created, err := db.CreateDocument(ctx, "books", book)
	if err != nil {
		log.Fatalln("create demo document:", err)
	}
	logger.Default().Infoln("created demo document", created.GetID())

	max := pointers.Float64Ptr(10)
	if _, err := db.IncreaseDocumentAttribute(ctx, "books", created.GetID(), "stock", 1, max); err != nil {
		logger.Default().WithError(err).Warnln("increase demo attribute failed")
	}

	found, err := db.Find(ctx, "books", []model.Query{model.Equal("author", "Donovan & Kernighan")})
	if err != nil {
		log.Fatalln("find demo documents:", err)
	}
	logger.Default().Infoln("found", len(found), "matching book(s)")
}

func seedCollections(ctx context.Context, db *database.Database) {
	if _, err := db.CreateCollection(ctx, "books", []database.Attribute{
		{ID: "title", Type: database.TypeString, Size: 256, Required: true},
		{ID: "author", Type: database.TypeString, Size: 256},
		{ID: "stock", Type: database.TypeInteger, Size: 8, Default: float64(0)},
	}, nil, []string{`read("any")`, `create("any")`, `update("any")`}); err != nil {
		logger.Default().WithError(err).Warnln("seed collection books")
	}
}
