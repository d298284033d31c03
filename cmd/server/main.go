package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"playforge.com/cs-triage/internal/api"
	"playforge.com/cs-triage/internal/config"
	"playforge.com/cs-triage/internal/core"
	"playforge.com/cs-triage/internal/rules"
	"playforge.com/cs-triage/internal/store"
)

func main() {
	// Load configuration
	config.LoadConfig()

	// Setup logging
	log.SetFlags(log.LstdFlags | log.Lshortfile)
	if config.AppConfig.LogLevel == "DEBUG" {
		log.Println("Service starting in DEBUG mode")
	}

	// Command line flags for one-shot pipeline execution
	runFlag := flag.Bool("run", false, "Run the inquiry pipeline once and exit")
	previewFlag := flag.Bool("preview", false, "Classify inquiries without writing back and exit")
	flag.Parse()

	// Load the category rule table (a missing file leaves it empty)
	ruleSet, err := rules.Load(config.AppConfig.RuleFilePath)
	if err != nil {
		log.Fatalf("Failed to load category rules: %v", err)
	}

	// Initialize lookup database
	lookups, err := store.NewLookupStore(config.AppConfig.LookupDSN)
	if err != nil {
		log.Fatalf("Failed to initialize lookup database: %v", err)
	}
	defer lookups.Close()

	// Initialize classifier
	classifier := core.NewGeminiClassifier(ruleSet)
	defer classifier.Close()

	// Wire the pipeline with direct references; no service lookup.
	records := store.NewCSVStore()
	pipeline := core.NewPipeline(
		records,
		config.AppConfig.InquiryCSVPath,
		classifier,
		core.NewRewardStatusResolver(lookups),
		core.NewRuleLookupResolver(ruleSet),
	)
	pipeline.SetClassifyWorkers(config.AppConfig.ClassifyWorkers)

	// Handle one-shot execution if a flag is set
	if *runFlag || *previewFlag {
		ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
		defer cancel()

		var report *core.RunReport
		if *previewFlag {
			report, err = pipeline.Preview(ctx)
		} else {
			report, err = pipeline.Run(ctx)
		}
		if err != nil {
			log.Fatalf("Pipeline execution failed: %v", err)
		}

		out, _ := json.MarshalIndent(report, "", "  ")
		fmt.Println(string(out))
		os.Exit(0)
	}

	// Initialize API Handler and Router
	apiHandler := api.NewAPIHandler(pipeline, records, config.AppConfig.InquiryCSVPath)
	router := api.NewRouter(apiHandler)

	// Start HTTP server
	serverAddr := fmt.Sprintf(":%s", config.AppConfig.HTTPPort)

	srv := &http.Server{
		Addr:         serverAddr,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 120 * time.Second, // a run classifies the whole batch before responding
		IdleTimeout:  120 * time.Second,
	}

	// Graceful shutdown handling
	go func() {
		log.Printf("Starting server on %s. Press Ctrl+C to quit.", serverAddr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Could not listen on %s: %v\n", serverAddr, err)
		}
	}()

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("Shutting down server...")

	// Give active runs time to finish before forcing shutdown.
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Fatalf("Server forced to shutdown: %v", err)
	}

	log.Println("Server exiting gracefully")
}
