// Command storeadminctl is the operator CLI for the storeadmin settings
// database: seeding defaults, listing and setting values, and rotating the
// master passcode.
package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/alecthomas/kong"

	cryptoadapter "github.com/ericfisherdev/storeadmin/internal/adapter/driven/crypto"
	sqliteadapter "github.com/ericfisherdev/storeadmin/internal/adapter/driven/sqlite"
	"github.com/ericfisherdev/storeadmin/internal/application"
	"github.com/ericfisherdev/storeadmin/internal/catalog"
	"github.com/ericfisherdev/storeadmin/internal/config"
)

var version = "dev"

// CLI is the root command structure.
type CLI struct {
	EnvFile string `help:"Path to a .env file." default:".env" name:"env-file" type:"path"`
	Verbose bool   `help:"Log debug output to stderr." short:"v"`

	Seed     SeedCmd     `cmd:"" help:"Write default settings for keys that are not stored yet."`
	List     ListCmd     `cmd:"" help:"List stored settings. Secrets are masked."`
	Set      SetCmd      `cmd:"" help:"Validate and store a single setting."`
	Passcode PasscodeCmd `cmd:"" help:"Set the master passcode (prompts without echo)."`
	Version  VersionCmd  `cmd:"" help:"Show version information."`
}

// Env carries the dependencies commands run against.
type Env struct {
	Ctx    context.Context
	Svc    *application.SettingsService
	Out    io.Writer
	Prompt PasswordPrompt
}

func main() {
	cli := &CLI{}
	kctx := kong.Parse(cli,
		kong.Name("storeadminctl"),
		kong.Description("Operator CLI for storeadmin settings"),
		kong.UsageOnError(),
		kong.ConfigureHelp(kong.HelpOptions{Compact: true}),
		kong.Vars{"version": version},
	)

	if kctx.Command() == "version" {
		kctx.FatalIfErrorf(kctx.Run(&Env{Out: os.Stdout}))
		return
	}

	env, closeEnv, err := openEnv(cli)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}

	err = kctx.Run(env)
	closeEnv()
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

// openEnv loads configuration, opens and migrates the database and builds the
// settings service. The returned func closes the database.
func openEnv(cli *CLI) (*Env, func(), error) {
	cfg, err := config.LoadFile(cli.EnvFile)
	if err != nil {
		return nil, nil, err
	}

	level := slog.LevelWarn
	if cli.Verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))

	ctx := context.Background()
	db, err := sqliteadapter.NewDB(ctx, cfg.DBPath)
	if err != nil {
		return nil, nil, err
	}
	closeDB := func() {
		if err := db.Close(); err != nil {
			logger.Error("error closing database", "error", err)
		}
	}

	if err := sqliteadapter.RunMigrations(db.Writer); err != nil {
		closeDB()
		return nil, nil, err
	}

	cipher, err := cryptoadapter.NewAESGCM(cfg.SecretKey)
	if err != nil {
		closeDB()
		return nil, nil, err
	}

	cat, err := catalog.Default()
	if err != nil {
		closeDB()
		return nil, nil, err
	}

	repo := sqliteadapter.NewSettingRepo(db, cipher, logger)
	svc := application.NewSettingsService(repo, cat, cryptoadapter.NewBcryptHasher(0), logger)

	return &Env{
		Ctx:    ctx,
		Svc:    svc,
		Out:    os.Stdout,
		Prompt: &terminalPrompt{in: os.Stdin, out: os.Stderr},
	}, closeDB, nil
}
