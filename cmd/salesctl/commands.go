package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"path/filepath"

	"github.com/google/subcommands"
	"github.com/joho/godotenv"
	"gorm.io/gorm"

	"go-sales-crm/internal/config"
	"go-sales-crm/internal/logging"
	"go-sales-crm/internal/model"
	"go-sales-crm/internal/policy"
	"go-sales-crm/internal/repository"
	"go-sales-crm/internal/service"
	"go-sales-crm/pkg/database"
)

// open loads the environment and connects to the configured database.
func open() (config.Config, *gorm.DB, error) {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		return cfg, nil, err
	}
	logging.Setup(cfg.Logging.Level, cfg.Logging.Format)

	db, err := database.Connect(cfg.Database)
	if err != nil {
		return cfg, nil, err
	}
	return cfg, db, nil
}

func failure(err error) subcommands.ExitStatus {
	fmt.Fprintln(os.Stderr, "Error:", err)
	return subcommands.ExitFailure
}

type migrateCmd struct{}

func (*migrateCmd) Name() string     { return "migrate" }
func (*migrateCmd) Synopsis() string { return "create or update the database schema" }
func (*migrateCmd) Usage() string {
	return `salesctl migrate

  Runs the schema migration for users, products, clients, sales and sale items.
`
}
func (*migrateCmd) SetFlags(*flag.FlagSet) {}

func (*migrateCmd) Execute(_ context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	_, db, err := open()
	if err != nil {
		return failure(err)
	}
	if err := database.Migrate(db); err != nil {
		return failure(err)
	}
	fmt.Println("Schema is up to date.")
	return subcommands.ExitSuccess
}

type importCmd struct {
	username string
}

func (*importCmd) Name() string     { return "import" }
func (*importCmd) Synopsis() string { return "upsert clients from an xlsx or csv file" }
func (*importCmd) Usage() string {
	return `salesctl import -user <username> <file>

  Imports clients into the given user's book. Rows are matched on the
  Correo column: existing clients are updated, new ones created.
`
}

func (c *importCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.username, "user", "", "owner of the imported clients")
}

func (c *importCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if c.username == "" || f.NArg() != 1 {
		fmt.Fprint(os.Stderr, c.Usage())
		return subcommands.ExitUsageError
	}

	cfg, db, err := open()
	if err != nil {
		return failure(err)
	}

	owner, err := repository.NewUserRepo(db).FindByUsername(ctx, c.username)
	if err != nil {
		return failure(fmt.Errorf("user %q: %w", c.username, err))
	}

	name := f.Arg(0)
	file, err := os.Open(name)
	if err != nil {
		return failure(err)
	}
	defer file.Close()

	imports := service.NewImportService(repository.NewClientRepo(db), nil, cfg.Import.Workers)
	res, err := imports.Import(ctx, policy.Caller{UserID: owner.ID, Role: owner.Role}, filepath.Base(name), file)
	if err != nil {
		return failure(err)
	}

	fmt.Println(res.Message)
	for _, e := range res.Errors {
		fmt.Println("  " + e)
	}
	return subcommands.ExitSuccess
}

type createUserCmd struct {
	username string
	password string
	fullName string
	zone     string
	role     string
}

func (*createUserCmd) Name() string     { return "create-user" }
func (*createUserCmd) Synopsis() string { return "create a seller or administrator account" }
func (*createUserCmd) Usage() string {
	return `salesctl create-user -user <username> -password <password> [-role USER|ADMIN] [-name <full name>] [-zone <zone>]
`
}

func (c *createUserCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.username, "user", "", "login name")
	f.StringVar(&c.password, "password", "", "initial password (at least 6 characters)")
	f.StringVar(&c.fullName, "name", "", "full name")
	f.StringVar(&c.zone, "zone", "", "sales zone")
	f.StringVar(&c.role, "role", model.RoleUser, "USER or ADMIN")
}

func (c *createUserCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if c.username == "" || c.password == "" {
		fmt.Fprint(os.Stderr, c.Usage())
		return subcommands.ExitUsageError
	}
	if !model.IsValidRole(c.role) {
		return failure(fmt.Errorf("unknown role %q", c.role))
	}

	_, db, err := open()
	if err != nil {
		return failure(err)
	}

	user, err := service.NewUserService(repository.NewUserRepo(db)).CreateUser(ctx, &service.CreateUserRequest{
		Username: c.username,
		Password: c.password,
		FullName: c.fullName,
		Zone:     c.zone,
		Role:     c.role,
	})
	if err != nil {
		return failure(err)
	}
	fmt.Printf("Created user %s (id %d, %s)\n", user.Username, user.ID, user.Role)
	return subcommands.ExitSuccess
}

type resetPasswordCmd struct {
	username string
	password string
}

func (*resetPasswordCmd) Name() string     { return "reset-password" }
func (*resetPasswordCmd) Synopsis() string { return "set a new password and end the user's session" }
func (*resetPasswordCmd) Usage() string {
	return `salesctl reset-password -user <username> -password <new password>
`
}

func (c *resetPasswordCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.username, "user", "admin", "account to reset")
	f.StringVar(&c.password, "password", "", "new password (at least 6 characters)")
}

func (c *resetPasswordCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if c.password == "" {
		fmt.Fprint(os.Stderr, c.Usage())
		return subcommands.ExitUsageError
	}

	_, db, err := open()
	if err != nil {
		return failure(err)
	}

	err = service.NewUserService(repository.NewUserRepo(db)).ResetPassword(ctx, c.username, c.password)
	if err != nil {
		return failure(err)
	}
	fmt.Printf("Password for %s has been reset.\n", c.username)
	return subcommands.ExitSuccess
}
