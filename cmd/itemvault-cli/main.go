// The itemvault CLI performs one RPC against a running worker. It
// stands in for the HTTP front end during development and smoke tests.
//
// Usage:
//
//	itemvault-cli [flags] register <username> <email> <password>
//	itemvault-cli [flags] login <username> <password>
//	itemvault-cli [flags] get-user <username>
//	itemvault-cli [flags] add <user-id> <item-name>
//	itemvault-cli [flags] items <user-id>
//	itemvault-cli [flags] delete <item-id>
//	itemvault-cli [flags] promote <user-id>
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log/slog"
	"os"

	"github.com/google/uuid"

	"github.com/itemvault/itemvault-go/config"
	"github.com/itemvault/itemvault-go/internal/rabbitmq"
	"github.com/itemvault/itemvault-go/messaging"
	"github.com/itemvault/itemvault-go/services"
)

func main() {
	var (
		configPath = flag.String("config", "", "path to YAML config file")
		amqpURL    = flag.String("amqp-url", "", "AMQP connection URL (overrides config)")
		verbose    = flag.Bool("v", false, "debug logging")
	)
	flag.Parse()

	if flag.NArg() < 1 {
		flag.Usage()
		os.Exit(2)
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		fatal(err)
	}
	if *amqpURL != "" {
		cfg.AMQPURL = *amqpURL
	}

	level := slog.LevelWarn
	if *verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)

	if err := run(cfg, logger, flag.Args()); err != nil {
		fatal(err)
	}
}

func run(cfg config.Config, logger *slog.Logger, args []string) error {
	ctx := context.Background()

	manager := rabbitmq.NewConnectionManager(cfg.AMQPURL, rabbitmq.WithLogger(logger))
	defer manager.Close()

	pool, err := rabbitmq.NewChannelPool(manager, rabbitmq.WithMaxSize(cfg.MaxPoolSize))
	if err != nil {
		return err
	}
	defer pool.Close()

	if err := rabbitmq.DeclareQueues(pool,
		rabbitmq.DurableQueue(cfg.RequestQueue),
		rabbitmq.DurableQueue(cfg.ResponseQueue),
	); err != nil {
		return err
	}

	table := messaging.NewCorrelationTable()
	listener := messaging.NewResponseListener(table, messaging.WithListenerLogger(logger))

	group := rabbitmq.NewConsumerGroup(manager, rabbitmq.WithConsumerLogger(logger))
	defer group.StopAll()

	if err := listener.Start(ctx, group, cfg.ResponseQueue,
		rabbitmq.WithPrefetchCount(cfg.PrefetchCount),
		rabbitmq.WithConsumerCount(cfg.ConsumerCount),
	); err != nil {
		return err
	}

	publisher := rabbitmq.NewPublisher(pool, rabbitmq.WithPublisherLogger(logger))
	client := messaging.NewRPCClient(publisher, table,
		messaging.WithRequestQueue(cfg.RequestQueue),
		messaging.WithCallTimeout(cfg.CallTimeout),
		messaging.WithClientLogger(logger),
	)

	items := services.NewItemService(client)
	users := services.NewUserService(client)

	switch cmd, rest := args[0], args[1:]; cmd {
	case "register":
		if len(rest) != 3 {
			return fmt.Errorf("usage: register <username> <email> <password>")
		}
		if err := users.Register(ctx, rest[0], rest[1], rest[2], ""); err != nil {
			return err
		}
		fmt.Println("registered")
		return nil

	case "login":
		if len(rest) != 2 {
			return fmt.Errorf("usage: login <username> <password>")
		}
		user, err := users.Authenticate(ctx, rest[0], rest[1])
		if err != nil {
			return err
		}
		return printJSON(user)

	case "get-user":
		if len(rest) != 1 {
			return fmt.Errorf("usage: get-user <username>")
		}
		user, err := users.User(ctx, rest[0])
		if err != nil {
			return err
		}
		return printJSON(user)

	case "add":
		if len(rest) != 2 {
			return fmt.Errorf("usage: add <user-id> <item-name>")
		}
		userID, err := uuid.Parse(rest[0])
		if err != nil {
			return fmt.Errorf("invalid user id: %w", err)
		}
		itemID, err := items.AddItem(ctx, userID, rest[1])
		if err != nil {
			return err
		}
		fmt.Println(itemID)
		return nil

	case "items":
		if len(rest) != 1 {
			return fmt.Errorf("usage: items <user-id>")
		}
		userID, err := uuid.Parse(rest[0])
		if err != nil {
			return fmt.Errorf("invalid user id: %w", err)
		}
		list, err := items.Items(ctx, userID)
		if err != nil {
			return err
		}
		return printJSON(list)

	case "delete":
		if len(rest) != 1 {
			return fmt.Errorf("usage: delete <item-id>")
		}
		itemID, err := uuid.Parse(rest[0])
		if err != nil {
			return fmt.Errorf("invalid item id: %w", err)
		}
		if err := items.SoftDelete(ctx, itemID); err != nil {
			return err
		}
		fmt.Println("deleted")
		return nil

	case "promote":
		if len(rest) != 1 {
			return fmt.Errorf("usage: promote <user-id>")
		}
		userID, err := uuid.Parse(rest[0])
		if err != nil {
			return fmt.Errorf("invalid user id: %w", err)
		}
		if err := users.UpgradeToAdmin(ctx, userID); err != nil {
			return err
		}
		fmt.Println("promoted")
		return nil

	default:
		return fmt.Errorf("unknown command %q", cmd)
	}
}

func fatal(err error) {
	fmt.Fprintln(os.Stderr, "itemvault-cli:", err)
	os.Exit(1)
}

func printJSON(v any) error {
	out, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	fmt.Println(string(out))
	return nil
}
