package main

import (
	"context"

	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"

	"fraudengine/internal/contracts"
	"fraudengine/internal/evaluation/application"
	"fraudengine/internal/evaluation/domain"
	"fraudengine/internal/evaluation/infrastructure"
	"fraudengine/internal/evaluation/interfaces"
	"fraudengine/internal/fraud"
	"fraudengine/internal/fraud/datarequest"
	"fraudengine/internal/fraud/rules"
	"fraudengine/internal/pkg/bootstrap"
	"fraudengine/internal/pkg/mq"
)

const serviceName = "evaluation-worker"

func main() {
	bootstrap.StartService(bootstrap.AppInfo{
		ServiceName: serviceName,
		Port:        8081,
		RegisterHandlers: func(app bootstrap.AppCtx) error {
			db, err := infrastructure.OpenMySQL(app.Config.MySQL.DSN)
			if err != nil {
				return err
			}
			checks := infrastructure.NewGormFraudCheckRepository(db)

			redisClient := redis.NewClient(&redis.Options{Addr: app.Config.Redis.Addr})
			var history domain.TransactionHistoryRepository = infrastructure.NewCachedHistoryRepository(checks, redisClient)

			registry := datarequest.NewRegistry()
			if err := infrastructure.RegisterDataHandlers(registry, history); err != nil {
				return err
			}

			window, err := app.Config.VelocityWindow()
			if err != nil {
				return err
			}
			rc := app.Config.Rules
			pipeline := fraud.NewPipeline(
				[]fraud.Rule{
					rules.NewHighAmountRule(decimal.NewFromFloat(rc.AmountThreshold), decimal.NewFromFloat(rc.HighAmountScore)),
					rules.NewForeignCountryRule(rc.AllowedCountry, decimal.NewFromFloat(rc.ForeignCountryScore)),
					rules.NewVelocityRule(rc.VelocityLimit, window, decimal.NewFromFloat(rc.VelocityScore)),
				},
				fraud.WithFlagThreshold(decimal.NewFromFloat(rc.FlagThreshold)),
			)

			service := application.NewEvaluationService(pipeline, checks, registry)

			writer := mq.NewKafkaWriter(app.Config.Kafka.Brokers)
			producer := mq.NewProducer(writer)
			handler := interfaces.NewTransactionEventHandler(service, producer)

			reader := mq.NewKafkaReader(app.Config.Kafka.Brokers, contracts.TopicTransactionReceived, app.Config.Kafka.GroupID)
			consumer := mq.NewConsumer(reader)
			app.Go(func(ctx context.Context) error {
				return consumer.Consume(ctx, handler.Handle)
			})

			return nil
		},
	})
}
