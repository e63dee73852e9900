// Command depcheck probes every external dependency of the route planner
// with the configuration the server would use.
package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/IBM/sarama"
	"github.com/redis/go-redis/v9"
	h3 "github.com/uber/h3-go/v4"

	"github.com/mohammed-shakir/route-planner/internal/core/config"
	"github.com/mohammed-shakir/route-planner/internal/core/httpclient"
	"github.com/mohammed-shakir/route-planner/internal/core/model"
	"github.com/mohammed-shakir/route-planner/internal/directions"
	"github.com/mohammed-shakir/route-planner/internal/events"
	"github.com/mohammed-shakir/route-planner/internal/geocode"
)

func testRedis(ctx context.Context, addr string) error {
	fmt.Println("Redis test")
	client := redis.NewClient(&redis.Options{
		Addr:        addr,
		DialTimeout: 2 * time.Second,
	})
	defer func() { _ = client.Close() }()

	if err := client.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("redis ping: %w", err)
	}
	if err := client.Set(ctx, "depcheck", "ok", 30*time.Second).Err(); err != nil {
		return fmt.Errorf("redis set: %w", err)
	}
	val, err := client.Get(ctx, "depcheck").Result()
	if err != nil {
		return fmt.Errorf("redis get: %w", err)
	}
	fmt.Println("redis GET depcheck:", val)
	return nil
}

func testGeocoder(ctx context.Context, cfg config.Config, address string) (model.GeoPoint, error) {
	fmt.Println("Geocoder test")
	g, err := geocode.NewNominatim(nil, httpclient.NewOutbound(cfg.Geocoder.Timeout), geocode.NominatimConfig{
		BaseURL:   cfg.Geocoder.URL,
		Countries: cfg.Geocoder.Countries,
		UserAgent: cfg.Geocoder.UserAgent,
	})
	if err != nil {
		return model.GeoPoint{}, err
	}
	p, ok := g.Resolve(ctx, address)
	if !ok {
		return model.GeoPoint{}, fmt.Errorf("no match for %q", address)
	}
	fmt.Printf("%s -> %s\n", address, p)
	return p, nil
}

func testDirections(ctx context.Context, cfg config.Config, from, to model.GeoPoint) error {
	fmt.Println("Directions test")
	if cfg.Directions.APIKey == "" {
		return fmt.Errorf("ORS_API_KEY not set: %w", model.ErrConfigurationMissing)
	}
	c, err := directions.NewORS(nil, httpclient.NewOutbound(cfg.Directions.Timeout), directions.Config{
		BaseURL: cfg.Directions.URL,
		APIKey:  cfg.Directions.APIKey,
		Timeout: cfg.Directions.Timeout,
	})
	if err != nil {
		return err
	}
	f, err := c.Route(ctx, directions.Request{
		Points: model.ServicePath([]model.GeoPoint{from, to}),
		Mode:   model.ModeCar,
	})
	if err != nil {
		return err
	}
	fmt.Printf("route: %d points, %d steps, summary duration %.0fs\n",
		len(f.Coordinates), len(f.Instructions), f.SummaryDuration)
	return nil
}

func testKafka(brokers []string, topic string) error {
	fmt.Println("Kafka test")
	cfg := events.ProducerConfig()
	cfg.Producer.Return.Successes = true
	prod, err := sarama.NewSyncProducer(brokers, cfg)
	if err != nil {
		return fmt.Errorf("producer create: %w", err)
	}
	defer func() { _ = prod.Close() }()

	part, off, err := prod.SendMessage(&sarama.ProducerMessage{
		Topic: topic,
		Key:   sarama.StringEncoder("depcheck"),
		Value: sarama.StringEncoder(`{"id":"depcheck","mode":"car"}`),
	})
	if err != nil {
		return fmt.Errorf("send message: %w", err)
	}
	fmt.Printf("produced one message partition=%d offset=%d\n", part, off)
	return nil
}

func demoH3(p model.GeoPoint, res int) {
	fmt.Println("H3 demo")
	cell, err := h3.LatLngToCell(h3.NewLatLng(p.Lat, p.Lng), res)
	if err != nil {
		fmt.Println("h3 error:", err)
		return
	}
	fmt.Printf("event cell for %s at res %d: %s\n", p, res, cell)
}

func main() {
	os.Exit(run())
}

func run() int {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	cfg := config.FromEnv()
	failed := false

	if cfg.RedisAddr != "" {
		if err := testRedis(ctx, cfg.RedisAddr); err != nil {
			fmt.Println("Redis error:", err)
			failed = true
		}
	}

	from, err := testGeocoder(ctx, cfg, "Berlin Hauptbahnhof")
	if err != nil {
		fmt.Println("Geocoder error:", err)
		return 1
	}
	to, err := testGeocoder(ctx, cfg, "Potsdam Hauptbahnhof")
	if err != nil {
		fmt.Println("Geocoder error:", err)
		return 1
	}
	if err := testDirections(ctx, cfg, from, to); err != nil {
		fmt.Println("Directions error:", err)
		failed = true
	}

	if cfg.Events.Enabled {
		if err := testKafka(cfg.Events.BrokerList(), cfg.Events.Topic); err != nil {
			fmt.Println("Kafka error:", err)
			failed = true
		}
	}
	demoH3(from, cfg.Events.H3Res)

	if failed {
		return 1
	}
	fmt.Println("All checks completed")
	return 0
}
