package main

import (
	"fraudengine/internal/pkg/bootstrap"
	"fraudengine/internal/pkg/mq"
	"fraudengine/internal/transactions/application"
	"fraudengine/internal/transactions/infrastructure"
	"fraudengine/internal/transactions/interfaces"
)

const serviceName = "transactions-api"

func main() {
	bootstrap.StartService(bootstrap.AppInfo{
		ServiceName: serviceName,
		RegisterHandlers: func(app bootstrap.AppCtx) error {
			db, err := infrastructure.OpenMySQL(app.Config.MySQL.DSN)
			if err != nil {
				return err
			}

			uow := infrastructure.NewGormUnitOfWork(db)
			transactions := infrastructure.NewGormTransactionRepository(db)
			service := application.NewTransactionService(uow, transactions)

			handler := interfaces.NewTransactionHandler(service)
			app.Mux.Handle("/", handler.Routes())

			writer := mq.NewKafkaWriter(app.Config.Kafka.Brokers)
			producer := mq.NewProducer(writer)

			interval, err := app.Config.OutboxInterval()
			if err != nil {
				return err
			}
			outbox := infrastructure.NewGormOutboxRepository(db)
			publisher := infrastructure.NewOutboxPublisher(outbox, producer, interval, app.Config.Outbox.BatchSize)
			app.Go(publisher.Start)

			return nil
		},
	})
}
