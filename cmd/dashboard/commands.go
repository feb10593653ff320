package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/dafibh/fortuna/fortuna-dashboard/internal/client"
	"github.com/dafibh/fortuna/fortuna-dashboard/internal/config"
	"github.com/dafibh/fortuna/fortuna-dashboard/internal/csvsource"
	"github.com/dafibh/fortuna/fortuna-dashboard/internal/domain"
	"github.com/dafibh/fortuna/fortuna-dashboard/internal/session"
	"github.com/dafibh/fortuna/fortuna-dashboard/internal/tui"
	"github.com/dafibh/fortuna/fortuna-dashboard/internal/validation"
	"github.com/dafibh/fortuna/fortuna-dashboard/internal/viewmodel"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
)

func newFlagSet(name string) *flag.FlagSet {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(os.Stderr)
	return fs
}

func newClient(cfg *config.Config, opts ...client.Option) *client.Client {
	return client.New(client.Config{
		BaseURL:       cfg.APIBaseURL,
		Timeout:       cfg.RequestTimeout,
		RatePerMinute: cfg.RateLimitPerMinute,
		Burst:         cfg.RateLimitBurst,
	}, opts...)
}

// loginFlags are shared by every command that needs a credential
type loginFlags struct {
	email    *string
	password *string
}

func addLoginFlags(fs *flag.FlagSet) loginFlags {
	return loginFlags{
		email:    fs.String("email", "", "log in with this email instead of DASHBOARD_TOKEN"),
		password: fs.String("password", "", "password for -email (or DASHBOARD_PASSWORD)"),
	}
}

// credential logs in when -email is set, otherwise decodes DASHBOARD_TOKEN
func (f loginFlags) credential(ctx context.Context, cfg *config.Config, api *client.Client) (session.Credential, error) {
	if *f.email != "" {
		password := *f.password
		if password == "" {
			password = os.Getenv("DASHBOARD_PASSWORD")
		}
		return login(ctx, api, *f.email, password)
	}
	if cfg.DashboardToken == "" {
		return session.Credential{}, errors.New("not logged in: set DASHBOARD_TOKEN (see 'dashboard login') or pass -email")
	}
	cred, err := session.FromToken(cfg.DashboardToken)
	if err != nil {
		return session.Credential{}, fmt.Errorf("DASHBOARD_TOKEN: %w", err)
	}
	if cred.Expired(time.Now()) {
		return session.Credential{}, errors.New("DASHBOARD_TOKEN has expired, run 'dashboard login' again")
	}
	return cred, nil
}

func login(ctx context.Context, api *client.Client, email, password string) (session.Credential, error) {
	input := domain.LoginInput{Email: strings.TrimSpace(email), Password: password}
	if err := validation.Validate(input); err != nil {
		return session.Credential{}, err
	}
	cred, err := api.Login(ctx, input)
	if errors.Is(err, domain.ErrAuth) {
		return session.Credential{}, errors.New("incorrect email or password")
	}
	return cred, err
}

// openViewModel binds a fresh view model to the caller's credential and loads it
func openViewModel(ctx context.Context, cfg *config.Config, lf loginFlags) (*viewmodel.DashboardViewModel, error) {
	api := newClient(cfg)
	cred, err := lf.credential(ctx, cfg, api)
	if err != nil {
		return nil, err
	}
	vm := viewmodel.New(api.WithCredential(cred), viewmodel.WithLogger(log.Logger))
	if _, err := vm.Load(ctx); err != nil {
		return nil, err
	}
	return vm, nil
}

func runTUI(ctx context.Context, cfg *config.Config, args []string) error {
	fs := newFlagSet("tui")
	lf := addLoginFlags(fs)
	if err := fs.Parse(args); err != nil {
		return err
	}

	api := newClient(cfg)
	cred, err := lf.credential(ctx, cfg, api)
	if err != nil {
		return err
	}

	// The alt screen owns the terminal
	zerolog.SetGlobalLevel(zerolog.Disabled)
	vm := viewmodel.New(api.WithCredential(cred), viewmodel.WithLogger(zerolog.Nop()))
	return tui.Run(vm)
}

func runLogin(ctx context.Context, cfg *config.Config, args []string) error {
	fs := newFlagSet("login")
	email := fs.String("email", "", "account email")
	password := fs.String("password", "", "account password (or DASHBOARD_PASSWORD)")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *password == "" {
		*password = os.Getenv("DASHBOARD_PASSWORD")
	}

	cred, err := login(ctx, newClient(cfg), *email, *password)
	if err != nil {
		return err
	}

	fmt.Printf("export DASHBOARD_TOKEN=%s\n", cred.Token)
	if !cred.ExpiresAt.IsZero() {
		fmt.Fprintf(os.Stderr, "token expires %s\n", cred.ExpiresAt.Local().Format(time.RFC1123))
	}
	return nil
}

func runRegister(ctx context.Context, cfg *config.Config, args []string) error {
	fs := newFlagSet("register")
	name := fs.String("name", "", "display name")
	email := fs.String("email", "", "account email")
	password := fs.String("password", "", "account password, at least 8 characters")
	if err := fs.Parse(args); err != nil {
		return err
	}

	input := domain.RegisterInput{
		Name:     strings.TrimSpace(*name),
		Email:    strings.TrimSpace(*email),
		Password: *password,
	}
	if err := validation.Validate(input); err != nil {
		return err
	}

	user, err := newClient(cfg).Register(ctx, input)
	if err != nil {
		return err
	}
	fmt.Printf("Registered %s <%s> (id %d). Run 'dashboard login' next.\n", user.Name, user.Email, user.ID)
	return nil
}

func runOverview(ctx context.Context, cfg *config.Config, args []string) error {
	fs := newFlagSet("overview")
	lf := addLoginFlags(fs)
	account := fs.Int64("account", 0, "show one account's detail")
	search := fs.String("search", "", "filter transactions by merchant or category")
	limit := fs.Int("limit", 20, "maximum transactions to print")
	if err := fs.Parse(args); err != nil {
		return err
	}

	vm, err := openViewModel(ctx, cfg, lf)
	if err != nil {
		return err
	}
	if *account != 0 {
		if err := vm.SelectAccount(account); err != nil {
			return err
		}
	}
	vm.SetSearchTerm(*search)

	printOverview(os.Stdout, vm.Projection(), *limit)
	return nil
}

func runBudgets(ctx context.Context, cfg *config.Config, args []string) error {
	fs := newFlagSet("budgets")
	lf := addLoginFlags(fs)
	create := fs.String("create", "", "create a budget for this category")
	limit := fs.String("limit", "", "monthly limit for -create")
	month := fs.Int("month", int(time.Now().Month()), "month for -create")
	year := fs.Int("year", time.Now().Year(), "year for -create")
	if err := fs.Parse(args); err != nil {
		return err
	}

	vm, err := openViewModel(ctx, cfg, lf)
	if err != nil {
		return err
	}

	if *create != "" {
		amount, err := decimal.NewFromString(*limit)
		if err != nil {
			return fmt.Errorf("-limit: %q is not a number", *limit)
		}
		input := domain.CreateBudgetInput{Category: *create, Month: *month, Year: *year, LimitAmount: amount}
		if _, err := vm.CreateBudget(ctx, input); err != nil && !staleOnly(err) {
			return err
		}
	}

	printBudgets(os.Stdout, vm.Projection())
	return nil
}

func runRules(ctx context.Context, cfg *config.Config, args []string) error {
	fs := newFlagSet("rules")
	lf := addLoginFlags(fs)
	query := fs.String("q", "", "only rules whose name, keywords or merchants contain this")
	custom := fs.Bool("custom", false, "list custom categories instead")
	add := fs.String("add", "", "create a rule for this category")
	keywords := fs.String("keywords", "", "comma-separated keywords for -add")
	merchants := fs.String("merchants", "", "comma-separated merchants for -add")
	if err := fs.Parse(args); err != nil {
		return err
	}

	vm, err := openViewModel(ctx, cfg, lf)
	if err != nil {
		return err
	}

	if *add != "" {
		input := domain.CategoryRuleInput{
			CategoryName: *add,
			Keywords:     domain.SplitKeywords(*keywords),
			Merchants:    domain.SplitKeywords(*merchants),
		}
		create := vm.CreateCategoryRule
		if *custom {
			create = vm.CreateCustomCategory
		}
		if _, err := create(ctx, input); err != nil && !staleOnly(err) {
			return err
		}
	}

	list := vm.CategoryRules
	if *custom {
		list = vm.CustomCategories
	}
	rules, err := list(ctx)
	if err != nil {
		return err
	}

	var matched []domain.CategoryRule
	for _, r := range rules {
		if r.Matches(*query) {
			matched = append(matched, r)
		}
	}
	printRules(os.Stdout, matched)
	return nil
}

func runBills(ctx context.Context, cfg *config.Config, args []string) error {
	fs := newFlagSet("bills")
	lf := addLoginFlags(fs)
	status := fs.String("status", "", "upcoming, paid or overdue")
	add := fs.String("add", "", "create a bill for this biller")
	amount := fs.String("amount", "", "amount due for -add")
	due := fs.String("due", "", "due date for -add (YYYY-MM-DD)")
	if err := fs.Parse(args); err != nil {
		return err
	}

	var want domain.BillStatus
	if *status != "" {
		want = domain.BillStatus(strings.ToLower(*status))
		if !want.Valid() {
			return fmt.Errorf("-status must be one of upcoming, paid, overdue")
		}
	}

	vm, err := openViewModel(ctx, cfg, lf)
	if err != nil {
		return err
	}

	if *add != "" {
		amt, err := decimal.NewFromString(*amount)
		if err != nil {
			return fmt.Errorf("-amount: %q is not a number", *amount)
		}
		input := domain.CreateBillInput{BillerName: *add, AmountDue: amt, DueDate: *due}
		if _, err := vm.CreateBill(ctx, input); err != nil && !staleOnly(err) {
			return err
		}
	}

	bills, err := vm.Bills(ctx)
	if err != nil {
		return err
	}
	var shown []domain.Bill
	for _, b := range bills {
		if want == "" || b.Status == want {
			shown = append(shown, b)
		}
	}
	printBills(os.Stdout, shown, currencyOf(vm.Accounts()))
	return nil
}

func runTransfer(ctx context.Context, cfg *config.Config, args []string) error {
	fs := newFlagSet("transfer")
	lf := addLoginFlags(fs)
	from := fs.Int64("from", 0, "source account id")
	to := fs.Int64("to", 0, "destination account id")
	amount := fs.String("amount", "", "amount to move")
	note := fs.String("note", "", "optional description")
	if err := fs.Parse(args); err != nil {
		return err
	}

	amt, err := decimal.NewFromString(*amount)
	if err != nil {
		return fmt.Errorf("-amount: %q is not a number", *amount)
	}
	input := domain.CreateTransferInput{FromAccountID: *from, ToAccountID: *to, Amount: amt}
	if *note != "" {
		input.Description = note
	}
	if err := validation.Validate(input); err != nil {
		return err
	}

	vm, err := openViewModel(ctx, cfg, lf)
	if err != nil {
		return err
	}
	transfer, err := vm.CreateTransfer(ctx, input)
	if err != nil && !staleOnly(err) {
		return err
	}
	printTransfer(os.Stdout, transfer, vm.Accounts())
	return nil
}

func runImportCSV(ctx context.Context, cfg *config.Config, args []string) error {
	fs := newFlagSet("import-csv")
	lf := addLoginFlags(fs)
	account := fs.String("account", "", "account id to import into")
	file := fs.String("file", "", "local path or s3://bucket/key of the statement")
	if err := fs.Parse(args); err != nil {
		return err
	}

	accountID, err := strconv.ParseInt(*account, 10, 64)
	if err != nil || accountID <= 0 {
		return errors.New("-account must be a positive account id")
	}
	if *file == "" {
		return errors.New("-file is required")
	}

	src, err := csvsource.Resolve(ctx, *file, cfg.S3)
	if err != nil {
		return err
	}
	f, err := src.Open(ctx, *file)
	if err != nil {
		return err
	}
	defer f.Body.Close()

	vm, err := openViewModel(ctx, cfg, lf)
	if err != nil {
		return err
	}

	result, err := vm.ImportCSV(ctx, accountID, f.Name, f.Size, f.Body)
	if err != nil && !staleOnly(err) {
		return err
	}
	printImport(os.Stdout, f.Name, result)
	return nil
}

// staleOnly reports an accepted change whose follow-up reload failed
func staleOnly(err error) bool {
	var reloadErr *viewmodel.ReloadError
	if errors.As(err, &reloadErr) {
		fmt.Fprintln(os.Stderr, "warning: change saved but the dashboard could not be refreshed:", reloadErr.Err)
		return true
	}
	return false
}
