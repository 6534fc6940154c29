package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/SscSPs/ledger_sync/internal/adapters/connectivity"
	"github.com/SscSPs/ledger_sync/internal/adapters/remote"
	"github.com/SscSPs/ledger_sync/internal/core/domain"
	portssvc "github.com/SscSPs/ledger_sync/internal/core/ports/services"
	"github.com/SscSPs/ledger_sync/internal/core/services"
	"github.com/SscSPs/ledger_sync/internal/dto"
	"github.com/SscSPs/ledger_sync/internal/platform/config"
	"github.com/SscSPs/ledger_sync/internal/platform/logger"
	"github.com/SscSPs/ledger_sync/internal/repositories/database/sqlite"
	"github.com/SscSPs/ledger_sync/internal/repositories/memory"
	"github.com/SscSPs/ledger_sync/internal/utils"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

const usage = `usage: ledger_client [-offline] <command> [flags]

commands:
  status                          show session, sync state and balances
  pull                            merge the remote copy into the local store
  push                            send the local snapshot
  login -email E -password P      start a session
  register -company C -owner O -email E -password P -pin N
  post -account A -amount X -type INCOME|EXPENSE|TRANSFER [-to B] [-credit] [-category C]
`

// client is one device session: the local store, its sync engine and the
// services operating on them.
type client struct {
	store     *memory.LocalStateStore
	container *portssvc.ServiceContainer
	log       *zap.Logger
}

func main() {
	os.Exit(run())
}

// run returns the process exit code so deferred cleanup happens before exit.
func run() int {
	offline := flag.Bool("offline", false, "start with connectivity off")
	flag.Usage = func() { fmt.Fprint(os.Stderr, usage) }
	flag.Parse()
	if flag.NArg() == 0 {
		flag.Usage()
		return 2
	}

	cfg, err := config.LoadConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		return 1
	}
	log := logger.New(logger.Config{Level: cfg.LogLevel, Format: "console"})
	defer func() { _ = log.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	c, err := newClient(ctx, cfg, log, !*offline)
	if err != nil {
		log.Error("Failed to open local store", zap.String("path", cfg.LocalDBPath), zap.Error(err))
		return 1
	}
	defer c.container.Sync.Stop()

	if err := c.run(ctx, flag.Arg(0), flag.Args()[1:]); err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	return 0
}

func newClient(ctx context.Context, cfg *config.Config, log *zap.Logger, online bool) (*client, error) {
	db, err := sqlite.Open(cfg.LocalDBPath)
	if err != nil {
		return nil, err
	}
	store := memory.NewLocalStateStore(sqlite.NewSnapshotRepository(db), log)
	if err := store.Load(ctx); err != nil {
		return nil, err
	}

	container := services.NewServiceContainer(cfg, services.ClientDependencies{
		Store:        store,
		Gateway:      remote.NewHTTPGateway(),
		IDs:          utils.NewUUIDGenerator(),
		Connectivity: connectivity.NewManual(online),
		Logger:       log,
	})
	if err := container.Sync.Start(ctx); err != nil {
		return nil, err
	}
	return &client{store: store, container: container, log: log}, nil
}

func (c *client) run(ctx context.Context, command string, args []string) error {
	switch command {
	case "status":
		c.container.Sync.ResolveEndpoint(ctx)
		c.printStatus()
		return nil
	case "pull":
		c.container.Sync.ResolveEndpoint(ctx)
		fmt.Println("pull:", c.container.Sync.Pull(ctx))
		return nil
	case "push":
		c.container.Sync.ResolveEndpoint(ctx)
		fmt.Println("push:", c.container.Sync.Push(ctx))
		return nil
	case "login":
		return c.login(ctx, args)
	case "register":
		return c.register(ctx, args)
	case "post":
		return c.post(ctx, args)
	default:
		return fmt.Errorf("unknown command %q\n%s", command, usage)
	}
}

func (c *client) login(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("login", flag.ExitOnError)
	email := fs.String("email", "", "account e-mail")
	password := fs.String("password", "", "account password")
	_ = fs.Parse(args)

	// Remote users can only be found once the endpoint is known.
	c.container.Sync.ResolveEndpoint(ctx)
	user, err := c.container.Auth.Login(ctx, *email, *password)
	if err != nil {
		return fmt.Errorf("login failed: %w", err)
	}
	fmt.Printf("signed in as %s (%s)\n", user.Name, user.Role)
	fmt.Println("pull:", c.container.Sync.Pull(ctx))
	return nil
}

func (c *client) register(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("register", flag.ExitOnError)
	req := dto.RegisterCompanyRequest{}
	fs.StringVar(&req.CompanyName, "company", "", "company name")
	fs.StringVar(&req.OwnerName, "owner", "", "owner name")
	fs.StringVar(&req.Email, "email", "", "owner e-mail")
	fs.StringVar(&req.Password, "password", "", "owner password")
	fs.StringVar(&req.PIN, "pin", "", "4-digit unlock PIN")
	_ = fs.Parse(args)

	c.container.Sync.ResolveEndpoint(ctx)
	result, err := c.container.Registration.RegisterCompany(ctx, req)
	if err != nil {
		return fmt.Errorf("registration failed: %w", err)
	}
	fmt.Printf("company %s registered, owner %s awaits approval\n", result.Company.ID, result.Owner.Email)
	return c.flush(ctx)
}

func (c *client) post(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("post", flag.ExitOnError)
	accountID := fs.String("account", "", "account id")
	toAccountID := fs.String("to", "", "destination account id of a transfer")
	amount := fs.String("amount", "", "amount")
	txType := fs.String("type", string(domain.Expense), "INCOME, EXPENSE or TRANSFER")
	credit := fs.Bool("credit", false, "post on credit")
	category := fs.String("category", "", "category")
	note := fs.String("note", "", "note")
	_ = fs.Parse(args)

	value, err := decimal.NewFromString(*amount)
	if err != nil {
		return fmt.Errorf("invalid amount %q: %w", *amount, err)
	}
	req := dto.PostTransactionRequest{
		Amount:        value,
		Type:          domain.TransactionType(*txType),
		Category:      *category,
		Note:          *note,
		AccountID:     *accountID,
		PaymentStatus: domain.Paid,
	}
	if *credit {
		req.PaymentStatus = domain.Credit
	}
	if *toAccountID != "" {
		req.ToAccountID = toAccountID
	}
	if user, ok := c.store.State().CurrentUser(); ok {
		req.CompanyID = user.CompanyID
	}

	c.container.Sync.ResolveEndpoint(ctx)
	tx, err := c.container.Ledger.PostTransaction(ctx, req)
	if err != nil {
		return fmt.Errorf("post failed: %w", err)
	}
	fmt.Printf("transaction %s posted\n", tx.ID)
	return c.flush(ctx)
}

// flush pushes right away instead of waiting out the debounce, since the
// process exits after one command.
func (c *client) flush(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()
	outcome := c.container.Sync.Push(ctx)
	fmt.Println("push:", outcome)
	if outcome == domain.SyncFailed {
		return errors.New("changes saved locally; the push failed and will be retried on the next sync")
	}
	return nil
}

func (c *client) printStatus() {
	state := c.store.State()
	status := c.container.Sync.Status()

	fmt.Printf("online:            %t\n", status.Online)
	fmt.Printf("remote configured: %t\n", status.RemoteConfigured)
	fmt.Printf("server responding: %t\n", status.ServerResponding)
	if status.Endpoint != "" {
		fmt.Printf("endpoint:          %s\n", status.Endpoint)
	}

	user, ok := state.CurrentUser()
	if !ok {
		fmt.Println("session:           none")
		return
	}
	fmt.Printf("session:           %s (%s)%s\n", user.Email, user.Role, lockedSuffix(state.IsLocked))

	for _, account := range state.Accounts {
		if !user.IsSuperAdmin() && account.CompanyID != user.CompanyID {
			continue
		}
		fmt.Printf("  %-20s %s\n", account.Name, utils.FormatMoney(account.Balance, state.Settings.Currency))
	}
}

func lockedSuffix(locked bool) string {
	if locked {
		return " [locked]"
	}
	return ""
}
