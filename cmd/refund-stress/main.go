package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"sync"
	"sync/atomic"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"

	"github.com/rl1809/order-refund/internal/adapter/handler"
)

// Fires concurrent refunds of the same unit against a running server.
// Exactly one of them may succeed.
func main() {
	addr := flag.String("addr", "localhost:50051", "refund service gRPC address")
	orderNumber := flag.String("order", "000222", "order number")
	unitID := flag.Int64("unit", 1, "order item unit id to refund")
	totalRequests := flag.Int("requests", 50, "concurrent requests")
	flag.Parse()

	conn, err := grpc.NewClient(*addr, grpc.WithTransportCredentials(insecure.NewCredentials()))
	if err != nil {
		log.Fatalf("failed to connect: %v", err)
	}
	defer conn.Close()

	client := handler.NewRefundServiceClient(conn)

	// Counters
	var successCount atomic.Int32
	var failCount atomic.Int32
	var messages sync.Map

	var wg sync.WaitGroup
	start := time.Now()

	for i := 0; i < *totalRequests; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()

			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()

			resp, err := client.RefundUnits(ctx, &handler.RefundUnitsRequest{
				OrderNumber: *orderNumber,
				UnitIDs:     []int64{*unitID},
			})
			switch {
			case err != nil:
				failCount.Add(1)
				messages.Store(err.Error(), true)
			case resp.Success:
				successCount.Add(1)
			default:
				failCount.Add(1)
				messages.Store(resp.Message, true)
			}
		}()
	}

	wg.Wait()
	elapsed := time.Since(start)

	success := successCount.Load()
	fail := failCount.Load()

	fmt.Println("========== REFUND STRESS RESULTS ==========")
	fmt.Printf("Order:            %s\n", *orderNumber)
	fmt.Printf("Unit:             %d\n", *unitID)
	fmt.Printf("Total Requests:   %d\n", *totalRequests)
	fmt.Printf("Successful:       %d\n", success)
	fmt.Printf("Failed:           %d\n", fail)
	fmt.Printf("Duration:         %v\n", elapsed)
	messages.Range(func(k, _ any) bool {
		fmt.Printf("Failure reason:   %s\n", k)
		return true
	})
	fmt.Println("============================================")

	if success <= 1 {
		fmt.Println("PASS: unit refunded at most once")
	} else {
		fmt.Printf("FAIL: unit refunded %d times\n", success)
	}
}
