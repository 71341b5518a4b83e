// storefrontctl is a CLI for exercising the storefront BFF by hand.
// Each command performs a single operation, making it composable for scripts.
//
// Commands:
//
//	storefrontctl cart [-reload]
//	storefrontctl add -product ID [-qty N]
//	storefrontctl qty -product ID -qty N
//	storefrontctl remove -product ID
//	storefrontctl wishlist
//	storefrontctl wish -product ID
//	storefrontctl unwish -product ID
//	storefrontctl move -product ID -to cart|wishlist
//	storefrontctl products [-category C] [-text TEXT]
//	storefrontctl login -token JWT -user ID
//	storefrontctl logout
//	storefrontctl watch
//
// Every command accepts -server URL and -session ID. The session defaults to
// $STOREFRONT_SESSION so that consecutive commands share one cart.
//
// Examples:
//
//	export STOREFRONT_SESSION=$(uuidgen)
//	storefrontctl add -product 64f0c2 -qty 2
//	storefrontctl move -product 64f0c2 -to wishlist
//	storefrontctl cart -q
package main

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"os/signal"
	"strings"
	"time"

	"storefront/internal/clientinfo"
	"storefront/internal/model"
	"storefront/internal/session"
	"storefront/internal/store"
)

// clientVersion is sent in the Storefront-Client header.
const clientVersion = "1.0.0"

var client = &http.Client{Timeout: 30 * time.Second}

// Global flags (apply to all commands)
var (
	serverURL string
	sessionID string
	quiet     bool
	noColor   bool
	verbose   bool
)

// ANSI color codes
var (
	colorReset  = "\033[0m"
	colorRed    = "\033[31m"
	colorGreen  = "\033[32m"
	colorYellow = "\033[33m"
	colorCyan   = "\033[36m"
	colorGray   = "\033[90m"
	colorBold   = "\033[1m"
)

func init() {
	if os.Getenv("NO_COLOR") != "" {
		disableColors()
	}
}

func disableColors() {
	colorReset, colorRed, colorGreen, colorYellow = "", "", "", ""
	colorCyan, colorGray, colorBold = "", "", ""
}

type command struct {
	usage string
	run   func(fs *flag.FlagSet, args []string)
}

var commands = map[string]command{
	"cart":     {"[-reload]", runCart},
	"add":      {"-product ID [-qty N]", runAdd},
	"qty":      {"-product ID -qty N", runQuantity},
	"remove":   {"-product ID", runRemove},
	"wishlist": {"", runWishlist},
	"wish":     {"-product ID", runWish},
	"unwish":   {"-product ID", runUnwish},
	"move":     {"-product ID -to cart|wishlist", runMove},
	"products": {"[-category C] [-text TEXT] [-sort S]", runProducts},
	"login":    {"-token JWT -user ID", runLogin},
	"logout":   {"", runLogout},
	"watch":    {"", runWatch},
}

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	name := os.Args[1]
	switch name {
	case "-h", "-help", "--help", "help":
		printUsage()
		return
	}
	cmd, ok := commands[name]
	if !ok {
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n\n", name)
		printUsage()
		os.Exit(1)
	}

	fs := flag.NewFlagSet(name, flag.ExitOnError)
	fs.StringVar(&serverURL, "server", envOr("STOREFRONT_URL", "http://localhost:8080"), "Storefront BFF base URL")
	fs.StringVar(&sessionID, "session", envOr("STOREFRONT_SESSION", "storefrontctl"), "Page session id")
	fs.BoolVar(&quiet, "q", false, "Quiet mode - only output essentials")
	fs.BoolVar(&noColor, "no-color", false, "Disable colored output")
	fs.BoolVar(&verbose, "v", false, "Verbose - show full request/response")
	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: storefrontctl %s %s [options]\n\nOptions:\n", name, cmd.usage)
		fs.PrintDefaults()
	}
	cmd.run(fs, os.Args[2:])
}

func printUsage() {
	fmt.Fprintf(os.Stderr, `storefrontctl - storefront BFF test tool

Usage:
  storefrontctl <command> [options]

Commands:
  cart      Show the cart with totals
  add       Add a product to the cart
  qty       Set a cart line's quantity (0 removes it)
  remove    Remove a cart line
  wishlist  Show the wishlist
  wish      Add a product to the wishlist
  unwish    Remove a product from the wishlist
  move      Move a product between cart and wishlist
  products  Search the catalog
  login     Store credentials for the session
  logout    Forget the session's credentials
  watch     Stream the session's change events

Examples:
  export STOREFRONT_SESSION=$(uuidgen)
  storefrontctl add -product 64f0c2 -qty 2
  storefrontctl move -product 64f0c2 -to wishlist

Run 'storefrontctl <command> -h' for command-specific options.
`)
}

func parse(fs *flag.FlagSet, args []string) {
	fs.Parse(args)
	if noColor {
		disableColors()
	}
	serverURL = strings.TrimSuffix(serverURL, "/")
}

func requireProduct(fs *flag.FlagSet, productID string) {
	if productID == "" {
		fs.Usage()
		os.Exit(1)
	}
}

// =============================================================================
// CART COMMANDS
// =============================================================================

type cartResponse struct {
	Item *model.CartLineItem `json:"item,omitempty"`
	Cart store.CartSnapshot  `json:"cart"`
}

func runCart(fs *flag.FlagSet, args []string) {
	var reload bool
	fs.BoolVar(&reload, "reload", false, "Refetch from the jewelry API")
	parse(fs, args)

	path := "/api/cart"
	if reload {
		path += "?reload=true"
	}
	var cart store.CartSnapshot
	if err := doRequest("GET", path, nil, &cart); err != nil {
		fatal("Failed to get cart: %v", err)
	}
	printCart(cart)
}

func runAdd(fs *flag.FlagSet, args []string) {
	var productID string
	var quantity int
	fs.StringVar(&productID, "product", "", "Product ID (required)")
	fs.IntVar(&quantity, "qty", 1, "Quantity")
	parse(fs, args)
	requireProduct(fs, productID)

	product := fetchProduct(productID)
	var resp cartResponse
	if err := doRequest("POST", "/api/cart/items", product.CartItem(quantity), &resp); err != nil {
		fatal("Failed to add to cart: %v", err)
	}
	printSuccess("Added %s", product.Name)
	printCart(resp.Cart)
}

func runQuantity(fs *flag.FlagSet, args []string) {
	var productID string
	var quantity int
	fs.StringVar(&productID, "product", "", "Product ID (required)")
	fs.IntVar(&quantity, "qty", -1, "New quantity (required, 0 removes)")
	parse(fs, args)
	requireProduct(fs, productID)
	if quantity < 0 {
		fs.Usage()
		os.Exit(1)
	}

	var resp cartResponse
	body := map[string]int{"quantity": quantity}
	if err := doRequest("PUT", "/api/cart/items/"+url.PathEscape(productID), body, &resp); err != nil {
		fatal("Failed to set quantity: %v", err)
	}
	printSuccess("Quantity set to %d", quantity)
	printCart(resp.Cart)
}

func runRemove(fs *flag.FlagSet, args []string) {
	var productID string
	fs.StringVar(&productID, "product", "", "Product ID (required)")
	parse(fs, args)
	requireProduct(fs, productID)

	var resp cartResponse
	if err := doRequest("DELETE", "/api/cart/items/"+url.PathEscape(productID), nil, &resp); err != nil {
		fatal("Failed to remove: %v", err)
	}
	printSuccess("Removed %s", productID)
	printCart(resp.Cart)
}

// =============================================================================
// WISHLIST COMMANDS
// =============================================================================

type wishlistResponse struct {
	Item     *model.WishlistItem    `json:"item,omitempty"`
	Wishlist store.WishlistSnapshot `json:"wishlist"`
}

func runWishlist(fs *flag.FlagSet, args []string) {
	parse(fs, args)

	var list store.WishlistSnapshot
	if err := doRequest("GET", "/api/wishlist", nil, &list); err != nil {
		fatal("Failed to get wishlist: %v", err)
	}
	printWishlist(list)
}

func runWish(fs *flag.FlagSet, args []string) {
	var productID string
	fs.StringVar(&productID, "product", "", "Product ID (required)")
	parse(fs, args)
	requireProduct(fs, productID)

	product := fetchProduct(productID)
	var resp wishlistResponse
	if err := doRequest("POST", "/api/wishlist/items", product.CartItem(1).ToWishlistItem(), &resp); err != nil {
		fatal("Failed to add to wishlist: %v", err)
	}
	printSuccess("Saved %s", product.Name)
	printWishlist(resp.Wishlist)
}

func runUnwish(fs *flag.FlagSet, args []string) {
	var productID string
	fs.StringVar(&productID, "product", "", "Product ID (required)")
	parse(fs, args)
	requireProduct(fs, productID)

	var resp wishlistResponse
	if err := doRequest("DELETE", "/api/wishlist/items/"+url.PathEscape(productID), nil, &resp); err != nil {
		fatal("Failed to remove from wishlist: %v", err)
	}
	printSuccess("Removed %s", productID)
	printWishlist(resp.Wishlist)
}

type stateResponse struct {
	Cart     store.CartSnapshot     `json:"cart"`
	Wishlist store.WishlistSnapshot `json:"wishlist"`
}

func runMove(fs *flag.FlagSet, args []string) {
	var productID, to string
	fs.StringVar(&productID, "product", "", "Product ID (required)")
	fs.StringVar(&to, "to", "", "Destination: cart or wishlist (required)")
	parse(fs, args)
	requireProduct(fs, productID)

	var path string
	switch to {
	case "wishlist":
		path = "/api/cart/items/" + url.PathEscape(productID) + "/move-to-wishlist"
	case "cart":
		path = "/api/wishlist/items/" + url.PathEscape(productID) + "/move-to-cart"
	default:
		fs.Usage()
		os.Exit(1)
	}

	var state stateResponse
	if err := doRequest("POST", path, nil, &state); err != nil {
		fatal("Failed to move: %v", err)
	}
	printSuccess("Moved %s to %s", productID, to)
	printCart(state.Cart)
	printWishlist(state.Wishlist)
}

// =============================================================================
// CATALOG AND SESSION COMMANDS
// =============================================================================

func runProducts(fs *flag.FlagSet, args []string) {
	var category, text, sort string
	fs.StringVar(&category, "category", "", "Category filter")
	fs.StringVar(&text, "text", "", "Search text")
	fs.StringVar(&sort, "sort", "", "Sort order")
	parse(fs, args)

	q := url.Values{}
	if category != "" {
		q.Set("category", category)
	}
	if text != "" {
		q.Set("q", text)
	}
	if sort != "" {
		q.Set("sort", sort)
	}
	path := "/api/products"
	if len(q) > 0 {
		path += "?" + q.Encode()
	}

	var resp struct {
		Products []model.Product `json:"products"`
		Total    int             `json:"total"`
	}
	if err := doRequest("GET", path, nil, &resp); err != nil {
		fatal("Failed to list products: %v", err)
	}
	for _, p := range resp.Products {
		if quiet {
			fmt.Println(p.ID)
			continue
		}
		stock := colorGreen + "in stock" + colorReset
		if !p.InStock() {
			stock = colorRed + "sold out" + colorReset
		}
		fmt.Printf("  %s%s%s  %s  %s (%s)\n", colorCyan, p.ID, colorReset, p.Name, model.FormatMoney(p.Price), stock)
	}
	printInfo("%d products", resp.Total)
}

func runLogin(fs *flag.FlagSet, args []string) {
	var creds session.Credentials
	fs.StringVar(&creds.Token, "token", "", "Bearer token from the login page (required)")
	fs.StringVar(&creds.UserID, "user", "", "User id (required)")
	parse(fs, args)
	if creds.Token == "" || creds.UserID == "" {
		fs.Usage()
		os.Exit(1)
	}

	var state stateResponse
	if err := doRequest("PUT", "/api/session/credentials", creds, &state); err != nil {
		fatal("Failed to log in: %v", err)
	}
	printSuccess("Signed in as %s", creds.UserID)
	printCart(state.Cart)
	printWishlist(state.Wishlist)
}

func runLogout(fs *flag.FlagSet, args []string) {
	parse(fs, args)
	if err := doRequest("DELETE", "/api/session/credentials", nil, nil); err != nil {
		fatal("Failed to log out: %v", err)
	}
	printSuccess("Signed out")
}

// runWatch prints events until interrupted or the server ends the stream.
func runWatch(fs *flag.FlagSet, args []string) {
	parse(fs, args)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	req, err := newRequest(ctx, "GET", "/api/events", nil)
	if err != nil {
		fatal("%v", err)
	}
	req.Header.Set("Accept", "text/event-stream")

	// The stream outlives the shared client's timeout.
	resp, err := (&http.Client{}).Do(req)
	if err != nil {
		fatal("Failed to open stream: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		fatal("HTTP %d: %s", resp.StatusCode, string(body))
	}
	printInfo("Watching session %s", sessionID)

	var event string
	scanner := bufio.NewScanner(resp.Body)
	scanner.Buffer(make([]byte, 64<<10), 1<<20)
	for scanner.Scan() {
		line := scanner.Text()
		switch {
		case strings.HasPrefix(line, "event: "):
			event = strings.TrimPrefix(line, "event: ")
		case strings.HasPrefix(line, "data: "):
			data := strings.TrimPrefix(line, "data: ")
			if quiet {
				fmt.Printf("%s %s\n", event, data)
				continue
			}
			fmt.Printf("%s%s%s %s\n", colorYellow, event, colorReset, time.Now().Format(time.TimeOnly))
			printJSON([]byte(data), "  ")
		}
	}
	if err := scanner.Err(); err != nil && ctx.Err() == nil {
		fatal("Stream failed: %v", err)
	}
}

func fetchProduct(id string) *model.Product {
	var p model.Product
	if err := doRequest("GET", "/api/products/"+url.PathEscape(id), nil, &p); err != nil {
		fatal("Failed to get product %s: %v", id, err)
	}
	return &p
}

// =============================================================================
// HTTP HELPERS
// =============================================================================

func newRequest(ctx context.Context, method, path string, body io.Reader) (*http.Request, error) {
	req, err := http.NewRequestWithContext(ctx, method, serverURL+path, body)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	header, err := clientinfo.FormatHeader(clientinfo.Info{SessionID: sessionID, Version: clientVersion})
	if err != nil {
		return nil, fmt.Errorf("formatting client header: %w", err)
	}
	req.Header.Set(clientinfo.HeaderName, header)
	return req, nil
}

// doRequest sends body as JSON and decodes the reply into out (if non-nil).
func doRequest(method, path string, body, out any) error {
	var reqBody io.Reader
	var reqJSON []byte

	if body != nil {
		var err error
		reqJSON, err = json.MarshalIndent(body, "", "  ")
		if err != nil {
			return fmt.Errorf("marshaling request: %w", err)
		}
		reqBody = bytes.NewReader(reqJSON)
	}

	req, err := newRequest(context.Background(), method, path, reqBody)
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	if verbose {
		printRequest(method, path, reqJSON)
	}

	start := time.Now()
	resp, err := client.Do(req)
	duration := time.Since(start)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("reading response: %w", err)
	}

	if verbose {
		printResponse(resp.StatusCode, respBody, duration)
	}

	if resp.StatusCode >= 400 {
		return apiError(resp.StatusCode, respBody)
	}
	if out == nil || len(respBody) == 0 {
		return nil
	}
	if err := json.Unmarshal(respBody, out); err != nil {
		return fmt.Errorf("parsing response: %w", err)
	}
	return nil
}

// apiError renders the BFF's error envelope, falling back to the raw body.
func apiError(status int, body []byte) error {
	var envelope struct {
		Error struct {
			Code     string `json:"code"`
			Message  string `json:"message"`
			Redirect string `json:"redirect"`
		} `json:"error"`
	}
	if err := json.Unmarshal(body, &envelope); err != nil || envelope.Error.Code == "" {
		return fmt.Errorf("HTTP %d: %s", status, string(body))
	}
	e := envelope.Error
	if e.Redirect != "" {
		return fmt.Errorf("%s: %s (go to %s)", e.Code, e.Message, e.Redirect)
	}
	return fmt.Errorf("%s: %s", e.Code, e.Message)
}

// =============================================================================
// OUTPUT HELPERS
// =============================================================================

func printCart(cart store.CartSnapshot) {
	if quiet {
		fmt.Println(model.FormatMoney(cart.Totals.Total))
		return
	}
	fmt.Printf("\n%sCart%s (%d items)\n", colorBold, colorReset, cart.Totals.ItemCount)
	for _, e := range cart.Entries {
		fmt.Printf("  %s%-24s%s x%-3d %10s  %s\n",
			colorCyan, e.Item.Name, colorReset, e.Item.Quantity,
			model.FormatMoney(e.Item.LineTotal()), formatStatus(e.Status))
	}
	t := cart.Totals
	fmt.Printf("  %sSubtotal%s %s  Shipping %s  Tax %s\n", colorGray, colorReset,
		model.FormatMoney(t.Subtotal), model.FormatMoney(t.ShippingFee), model.FormatMoney(t.Tax))
	if t.Savings.IsPositive() {
		fmt.Printf("  %sYou save %s%s\n", colorGreen, model.FormatMoney(t.Savings), colorReset)
	}
	fmt.Printf("  Total: %s%s%s\n", colorGreen, model.FormatMoney(t.Total), colorReset)
}

func printWishlist(list store.WishlistSnapshot) {
	if quiet {
		for _, e := range list.Entries {
			fmt.Println(e.Item.ProductID)
		}
		return
	}
	fmt.Printf("\n%sWishlist%s (%d items)\n", colorBold, colorReset, len(list.Entries))
	for _, e := range list.Entries {
		fmt.Printf("  %s%-24s%s %10s  %s\n",
			colorCyan, e.Item.Name, colorReset, model.FormatMoney(e.Item.Price), formatStatus(e.Status))
	}
}

func formatStatus(s model.ItemStatus) string {
	if s == model.StatusConfirmed {
		return colorGray + string(s) + colorReset
	}
	return colorYellow + string(s) + colorReset
}

func printRequest(method, path string, body []byte) {
	fmt.Printf("\n%s▶ REQUEST%s %s%s %s%s\n", colorYellow, colorReset, colorBold, method, path, colorReset)
	if body != nil {
		printJSON(body, "  ")
	}
}

func printResponse(status int, body []byte, duration time.Duration) {
	statusColor := colorGreen
	if status >= 400 {
		statusColor = colorRed
	}
	fmt.Printf("\n%s◀ RESPONSE%s %s%d%s (%v)\n", colorCyan, colorReset, statusColor, status, colorReset, duration)
	printJSON(body, "  ")
}

func printJSON(data []byte, prefix string) {
	var pretty bytes.Buffer
	if err := json.Indent(&pretty, data, prefix, "  "); err != nil {
		fmt.Printf("%s%s\n", prefix, string(data))
		return
	}
	fmt.Println(prefix + pretty.String())
}

func printSuccess(format string, args ...any) {
	if !quiet {
		fmt.Printf("%s✓ %s%s\n", colorGreen, fmt.Sprintf(format, args...), colorReset)
	}
}

func printInfo(format string, args ...any) {
	if !quiet {
		fmt.Printf("%s→ %s%s\n", colorGray, fmt.Sprintf(format, args...), colorReset)
	}
}

func fatal(format string, args ...any) {
	fmt.Fprintf(os.Stderr, "%s✗ %s%s\n", colorRed, fmt.Sprintf(format, args...), colorReset)
	os.Exit(1)
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
