package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	echoapi "github.com/mwalimu/shule/apps/api/echo"
	"github.com/mwalimu/shule/core"
	"github.com/mwalimu/shule/core/exam"
	"github.com/mwalimu/shule/core/subject"
	"github.com/mwalimu/shule/core/user"
	emailsvc "github.com/mwalimu/shule/services/email"
	logsvc "github.com/mwalimu/shule/services/logger"
	"github.com/mwalimu/shule/storage/database"
	sqlxrepos "github.com/mwalimu/shule/storage/database/sqlx"
)

func main() {
	std := log.New(os.Stdout, "API : ", log.LstdFlags|log.Lmicroseconds|log.Lshortfile)
	logger := logsvc.NewRollbarLogger(std, core.Conf)
	logger.Enable(!(core.Conf.Debug || core.Conf.TestMode))

	// set up DB
	if err := database.CreateIfNotExist(core.Conf); err != nil {
		logger.Fatal("creating database", err)
	}
	db, err := database.Open(core.Conf)
	if err != nil {
		logger.Fatal("opening database", err)
	}
	defer db.Close()
	if err = database.Migrate(db); err != nil {
		logger.Fatal("migrating database", err)
	}

	// set up services
	var mailSvc core.EmailService
	if core.Conf.Debug {
		mailSvc = emailsvc.NewConsoleService()
	} else {
		mailSvc = emailsvc.NewSendgridService(logger)
	}
	usrSvc := user.NewService(sqlxrepos.NewUserRepository(db), mailSvc)
	subjSvc := subject.NewService(sqlxrepos.NewSubjectRepository(db))
	examSvc := exam.NewService(sqlxrepos.NewExamRepository(db))

	// start API server; unrecoverable errors caught by the error handler also
	// land on the shutdown channel
	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)

	app := echoapi.NewServer(&echoapi.Options{
		Address:    core.Conf.Server.Address(),
		Logger:     logger,
		Shutdown:   func() { shutdown <- syscall.SIGTERM },
		UserSvc:    usrSvc,
		SubjectSvc: subjSvc,
		ExamSvc:    examSvc,
	})
	go app.Start()

	<-shutdown
	ctx, cancel := context.WithTimeout(context.Background(), core.Conf.Server.ShutdownTimeout)
	defer cancel()
	if err = app.Stop(ctx); err != nil {
		logger.Error("stopping server", err)
	}
}
