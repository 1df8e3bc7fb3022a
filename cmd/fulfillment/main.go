package main

import (
	"context"
	"log"
	"os"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/lexfirma/lexfirma/backend/go-services/handlers"
	"github.com/lexfirma/lexfirma/backend/go-services/internal/artifact"
	"github.com/lexfirma/lexfirma/backend/go-services/internal/database"
	"github.com/lexfirma/lexfirma/backend/go-services/internal/document/repository"
	"github.com/lexfirma/lexfirma/backend/go-services/internal/document/service"
	"github.com/lexfirma/lexfirma/backend/go-services/internal/payment"
)

// Standalone fulfillment service for local development: memory-backed when
// MongoDB is not reachable, no gateway, free documents only.
func main() {
	port := os.Getenv("FULFILLMENT_PORT")
	if port == "" {
		port = "5010"
	}

	r := gin.New()
	r.Use(gin.Recovery())

	var repo repository.Repository
	mongoURI := os.Getenv("MONGODB_URI")
	if mongoURI != "" {
		client, err := database.ConnectMongo(context.Background(), mongoURI, 10*time.Second)
		if err != nil {
			log.Printf("warning: cannot connect to MongoDB (%v) — using memory-backed repo", err)
			repo = repository.NewMemoryRepo()
		} else {
			col := client.Database(os.Getenv("MONGODB_DATABASE")).Collection(database.CollectionDocuments)
			repo = repository.NewMongoRepo(col)
		}
	} else {
		repo = repository.NewMemoryRepo()
	}

	svc := service.New(repo)
	gateway := payment.UnconfiguredGateway{}
	initiator := payment.NewInitiator(gateway, payment.NewMemorySessionStore(), time.Hour)
	reconciler := payment.NewReconciler(repo, gateway, payment.DefaultPollConfig())
	finalizer := artifact.NewFinalizer(repo, artifact.NewTextRenderer(), artifact.NewMemoryStore(), nil, 15*time.Minute)

	handlers.RegisterFulfillmentRoutes(r, handlers.Fulfillment{
		Service:    svc,
		Initiator:  initiator,
		Reconciler: reconciler,
		Finalizer:  finalizer,
	})

	log.Printf("fulfillment service listening on :%s", port)
	if err := r.Run(":" + port); err != nil {
		log.Fatal(err)
	}
}
