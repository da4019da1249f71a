package main

import (
	"fmt"
	"time"

	"go.uber.org/zap"

	observerloop "github.com/jonoton/go-observerloop"
)

func main() {
	log, err := zap.NewDevelopment() // Debug lines included
	if err != nil {
		panic(err)
	}
	defer log.Sync()

	session := observerloop.NewSession(
		observerloop.WithLogger(log),
		observerloop.WithInterval(200*time.Millisecond),
	)
	defer session.Close() // Unsubscribes everyone, lowest id first

	// No produced listeners: the producer still announces every value, but
	// nobody hears it. Two consumed listeners see each drained value.
	if err := session.Populate(0, 2); err != nil {
		fmt.Println("populate:", err)
		return
	}

	fmt.Printf("\n--- Running %d cycles ---\n", session.Budget())
	stats, err := session.Run()
	if err != nil {
		fmt.Println("run:", err)
		return
	}

	fmt.Printf("\n--- Run %s: produced=%d consumed=%d drains=%d ---\n",
		stats.RunID, stats.Produced, stats.Consumed, stats.DrainCycles)
}
