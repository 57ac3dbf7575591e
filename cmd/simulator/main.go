package main

import (
	"context"
	"log"
	"time"

	"chit-chat/simulator"
)

func main() {
	config := simulator.SimConfig{
		NumUsers:          10,
		SimulationTime:    10 * time.Minute,
		MessageFrequency:  120.0,
		ReactionFrequency: 60.0,
		FeedFrequency:     240.0,
		PrivateRatio:      0.2,
		ServerURL:         "http://localhost:8080",
	}

	sim := simulator.NewSimulator(config)
	ctx, cancel := context.WithTimeout(context.Background(), config.SimulationTime)
	defer cancel()

	log.Printf("Starting simulation with configuration:")
	log.Printf("- Server URL: %s", config.ServerURL)
	log.Printf("- Number of users: %d", config.NumUsers)
	log.Printf("- Simulation time: %v", config.SimulationTime)
	log.Printf("- Message frequency: %.2f messages/user/hour", config.MessageFrequency)
	log.Printf("- Reaction frequency: %.2f reactions/user/hour", config.ReactionFrequency)
	log.Printf("- Feed read frequency: %.2f reads/user/hour", config.FeedFrequency)
	log.Printf("- Private message ratio: %.1f%%", config.PrivateRatio*100)

	if err := sim.Run(ctx); err != nil {
		log.Fatalf("Simulation failed: %v", err)
	}

	metrics := sim.GetMetrics()
	log.Printf("\nSimulation completed. Final metrics:")
	log.Printf("- Total users: %d", metrics.TotalUsers)
	log.Printf("- Total messages: %d (private: %d)", metrics.TotalMessages, metrics.PrivateMessages)
	log.Printf("- Total reactions: %d", metrics.TotalReactions)
	log.Printf("- Feed reads: %d", metrics.TotalFeedReads)
	log.Printf("- Failed requests: %d", metrics.FailedRequests)
	log.Printf("- Average latency: %v", metrics.AverageLatency)
}
