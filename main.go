package main

import (
	"fmt"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/op/go-logging"
	"github.com/spf13/cobra"

	"github.com/procodebh/crm-console/config"
	"github.com/procodebh/crm-console/database"
	"github.com/procodebh/crm-console/database/model"
	"github.com/procodebh/crm-console/logger"
	"github.com/procodebh/crm-console/web"
	"github.com/procodebh/crm-console/web/service"
	"github.com/procodebh/crm-console/web/session"
)

func initLogger() {
	switch config.GetLogLevel() {
	case config.Debug:
		logger.InitLogger(logging.DEBUG)
	case config.Info:
		logger.InitLogger(logging.INFO)
	case config.Notice:
		logger.InitLogger(logging.NOTICE)
	case config.Warn:
		logger.InitLogger(logging.WARNING)
	case config.Error:
		logger.InitLogger(logging.ERROR)
	default:
		log.Fatal("unknown log level:", config.GetLogLevel())
	}
}

func runWebServer() {
	log.Printf("%v %v", config.GetName(), config.GetVersion())
	initLogger()

	err := database.InitDB(config.GetDBPath())
	if err != nil {
		log.Fatal(err)
	}
	defer database.CloseDB()

	server := web.NewServer()
	err = server.Start()
	if err != nil {
		log.Println(err)
		return
	}

	sigCh := make(chan os.Signal, 1)
	// Trap shutdown signals
	signal.Notify(sigCh, syscall.SIGHUP, syscall.SIGUSR1, syscall.SIGTERM, os.Interrupt)
	for {
		sig := <-sigCh

		switch sig {
		case syscall.SIGUSR1:
			// Dump recent warnings and errors to stdout.
			for _, line := range logger.GetLogs(100, "WARNING") {
				fmt.Println(line)
			}
		case syscall.SIGHUP:
			logger.Info("Received SIGHUP, restarting the web server")
			if err := server.Stop(); err != nil {
				logger.Warning("stop server err:", err)
			}
			server = web.NewServer()
			if err := server.Start(); err != nil {
				log.Println(err)
				return
			}
		default:
			logger.Info("Shutting down")
			if err := server.Stop(); err != nil {
				logger.Warning("stop server err:", err)
			}
			logger.CloseLogger()
			return
		}
	}
}

// printRoutes lists every guarded page with the roles allowed on it.
func printRoutes() {
	for _, route := range session.RouteTable {
		roles := "any signed-in user"
		switch {
		case route.Public:
			roles = "public"
		case len(route.Roles) > 0:
			names := make([]string, 0, len(route.Roles))
			for _, r := range route.Roles {
				names = append(names, string(r))
			}
			roles = strings.Join(names, ", ")
		}
		fmt.Printf("%-20s %s\n", route.Path, roles)
	}
	if err := session.ValidateNavigation(session.NavTabItems, session.RouteTable); err != nil {
		fmt.Println("navigation check failed:", err)
		os.Exit(1)
	}
}

func showAudit(limit int, action string) {
	if err := database.InitDB(config.GetDBPath()); err != nil {
		fmt.Println(err)
		return
	}
	defer database.CloseDB()

	auditService := service.AuditLogService{}
	logs, total, err := auditService.GetAuditLogs(service.AuditQuery{
		Action: model.AuditAction(strings.ToUpper(action)),
		Limit:  limit,
	})
	if err != nil {
		fmt.Println("read audit log failed:", err)
		return
	}
	fmt.Printf("showing %d of %d entries\n", len(logs), total)
	for _, l := range logs {
		fmt.Printf("%s  %-14s %-28s %-10s %s %s\n",
			l.Timestamp.Format("2006-01-02 15:04:05"), l.Action, l.Email, l.Role, l.Path, l.IP)
	}
}

func main() {
	config.LoadEnv()

	var rootCmd = &cobra.Command{
		Use:   config.GetName(),
		Short: "Institute admin console",
	}

	var runCmd = &cobra.Command{
		Use:   "run",
		Short: "Run the web server",
		Run: func(cmd *cobra.Command, args []string) {
			runWebServer()
		},
	}

	var routesCmd = &cobra.Command{
		Use:   "routes",
		Short: "Print the route table and the roles allowed on each page",
		Run: func(cmd *cobra.Command, args []string) {
			printRoutes()
		},
	}

	var auditCmd = &cobra.Command{
		Use:   "audit",
		Short: "Show recent session audit entries",
		Run: func(cmd *cobra.Command, args []string) {
			limit, _ := cmd.Flags().GetInt("limit")
			action, _ := cmd.Flags().GetString("action")
			showAudit(limit, action)
		},
	}
	auditCmd.Flags().Int("limit", 50, "number of entries to show")
	auditCmd.Flags().String("action", "", "only show this action, e.g. LOGIN_FAILED")

	var versionCmd = &cobra.Command{
		Use:   "version",
		Short: "Show the version",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Println(config.GetVersion())
		},
	}

	rootCmd.AddCommand(runCmd, routesCmd, auditCmd, versionCmd)

	if err := rootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}
