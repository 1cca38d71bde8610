package main

import (
	"log"
	"os"

	dig_container "github.com/trezcool/edutrack/apps/api/di/dig"
	"github.com/trezcool/edutrack/core"
	"github.com/trezcool/edutrack/core/school"
	"github.com/trezcool/edutrack/core/user"
)

func main() {
	var code int
	c := dig_container.New()

	err := c.Invoke(func(
		conf *core.Config,
		logger core.Logger,
		storage dig_container.Storage,
		usrRepo user.Repository,
		schoolSvc *school.Service,
	) {
		defer func() {
			if err := storage.Close(); err != nil {
				logger.Error("closing storage", err)
			}
		}()
		if storage.DB == nil {
			logger.Warn("the in-memory engine does not persist changes; set database.engine to postgres")
		}

		cli := commandLine{
			db:      storage.DB,
			usrRepo: usrRepo,
			school:  schoolSvc,
			logger:  logger,
		}
		if err := cli.run(os.Args); err != nil {
			if err != errHelp {
				logger.Error("admin command failed", err)
			}
			code = 1
		}
	})
	if err != nil {
		log.Fatal(err)
	}
	os.Exit(code)
}
