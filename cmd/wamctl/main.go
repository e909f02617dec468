package main

import (
	"bytes"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"time"

	"github.com/shyndman/whatsapp-mcp/internal/config"
	"github.com/shyndman/whatsapp-mcp/internal/session"
	"github.com/shyndman/whatsapp-mcp/internal/store"
)

func main() {
	sessionFlag := flag.String("session", "", "session name (overrides config default)")
	jsonFlag := flag.Bool("json", false, "output in JSON format")
	addrFlag := flag.String("addr", "", "daemon address (overrides config)")
	flag.Parse()

	sessionName := session.Resolve(*sessionFlag)
	if err := session.ValidateName(sessionName); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}

	args := flag.Args()
	if len(args) == 0 {
		printUsage()
		os.Exit(1)
	}

	addr := *addrFlag
	if addr == "" {
		cfg, err := config.Load(session.ConfigPath())
		if err != nil {
			cfg = config.Default()
		}
		addr = cfg.Daemon.ListenAddr
	}
	c := &client{base: "http://" + addr, jsonOut: *jsonFlag}

	switch args[0] {
	case "chats":
		c.cmdChats(args[1:])
	case "messages":
		c.cmdMessages(args[1:])
	case "context":
		c.cmdContext(args[1:])
	case "contacts":
		c.cmdContacts(args[1:])
	case "partitions":
		c.cmdPartitions(args[1:])
	case "send":
		c.cmdSend(args[1:])
	case "download":
		c.cmdDownload(args[1:])
	default:
		fmt.Fprintf(os.Stderr, "unknown command: %s\n", args[0])
		printUsage()
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Fprintln(os.Stderr, "usage: wamctl [--session <name>] [--json] [--addr <host:port>] <command>")
	fmt.Fprintln(os.Stderr, "")
	fmt.Fprintln(os.Stderr, "commands:")
	fmt.Fprintln(os.Stderr, "  chats [query]                 List chats, optionally filtered")
	fmt.Fprintln(os.Stderr, "  messages <chat-jid> [query] [cursor]")
	fmt.Fprintln(os.Stderr, "                                List messages in a chat, resuming at cursor")
	fmt.Fprintln(os.Stderr, "  context <message-id>          Show a message with surrounding context")
	fmt.Fprintln(os.Stderr, "  contacts <query>              Search contacts")
	fmt.Fprintln(os.Stderr, "  partitions <size> [chat-jid]  Plan partitions over the archive")
	fmt.Fprintln(os.Stderr, "  send <recipient> <message>    Send a text message via the bridge")
	fmt.Fprintln(os.Stderr, "  download <message-id> <jid>   Download a message's media via the bridge")
}

type client struct {
	base    string
	jsonOut bool
}

func (c *client) get(path string, q url.Values, out any) {
	u := c.base + path
	if len(q) > 0 {
		u += "?" + q.Encode()
	}
	res, err := (&http.Client{Timeout: 30 * time.Second}).Get(u)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: cannot reach daemon at %s: %v\n", c.base, err)
		os.Exit(1)
	}
	c.finish(res, out)
}

func (c *client) post(path string, body any, out any) {
	payload, _ := json.Marshal(body)
	res, err := (&http.Client{Timeout: 30 * time.Second}).Post(
		c.base+path, "application/json", bytes.NewReader(payload))
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: cannot reach daemon at %s: %v\n", c.base, err)
		os.Exit(1)
	}
	c.finish(res, out)
}

func (c *client) finish(res *http.Response, out any) {
	defer func() { _ = res.Body.Close() }()
	raw, err := io.ReadAll(res.Body)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
	if res.StatusCode != http.StatusOK {
		var e struct {
			Error string `json:"error"`
		}
		if json.Unmarshal(raw, &e) == nil && e.Error != "" {
			fmt.Fprintf(os.Stderr, "error: %s\n", e.Error)
		} else {
			fmt.Fprintf(os.Stderr, "error: daemon returned status %d\n", res.StatusCode)
		}
		os.Exit(1)
	}
	if c.jsonOut {
		var pretty bytes.Buffer
		if json.Indent(&pretty, raw, "", "  ") == nil {
			fmt.Println(pretty.String())
		} else {
			fmt.Println(string(raw))
		}
		os.Exit(0)
	}
	if err := json.Unmarshal(raw, out); err != nil {
		fmt.Fprintf(os.Stderr, "error decoding response: %v\n", err)
		os.Exit(1)
	}
}

func (c *client) cmdChats(args []string) {
	q := url.Values{}
	if len(args) > 0 {
		q.Set("query", args[0])
	}
	var resp struct {
		Chats []store.Chat `json:"chats"`
	}
	c.get("/api/chats", q, &resp)
	if len(resp.Chats) == 0 {
		fmt.Println("No chats found.")
		return
	}
	for _, chat := range resp.Chats {
		when := ""
		if chat.LastMessageTime != nil {
			when = chat.LastMessageTime.Local().Format("2006-01-02 15:04")
		}
		name := chat.Name
		if name == "" {
			name = chat.JID
		}
		fmt.Printf("%-30s %-16s %s\n", name, when, chat.JID)
	}
}

func printMessages(msgs []store.Message) {
	for _, m := range msgs {
		sender := m.SenderName
		if m.IsFromMe {
			sender = "me"
		} else if sender == "" {
			sender = m.Sender
		}
		content := m.Content
		if m.MediaType != "" {
			content = fmt.Sprintf("[%s] %s", m.MediaType, content)
		}
		fmt.Printf("[%s] %s: %s\n", m.Timestamp.Local().Format("2006-01-02 15:04"), sender, content)
	}
}

func (c *client) cmdMessages(args []string) {
	if len(args) < 1 {
		fmt.Fprintln(os.Stderr, "usage: wamctl messages <chat-jid> [query]")
		os.Exit(1)
	}
	q := url.Values{}
	q.Set("chat_jid", args[0])
	if len(args) > 1 {
		q.Set("query", args[1])
	}
	if len(args) > 2 {
		q.Set("cursor", args[2])
	}
	var resp struct {
		Messages   []store.Message `json:"messages"`
		NextCursor string          `json:"next_cursor"`
	}
	c.get("/api/messages", q, &resp)
	if len(resp.Messages) == 0 {
		fmt.Println("No messages found.")
		return
	}
	printMessages(resp.Messages)
	if resp.NextCursor != "" {
		fmt.Printf("\nnext cursor: %s\n", resp.NextCursor)
	}
}

func (c *client) cmdContext(args []string) {
	if len(args) < 1 {
		fmt.Fprintln(os.Stderr, "usage: wamctl context <message-id>")
		os.Exit(1)
	}
	var resp store.MessageContext
	c.get("/api/messages/"+url.PathEscape(args[0])+"/context", nil, &resp)
	printMessages(resp.Before)
	fmt.Print(">>> ")
	printMessages([]store.Message{resp.Message})
	printMessages(resp.After)
}

func (c *client) cmdContacts(args []string) {
	if len(args) < 1 {
		fmt.Fprintln(os.Stderr, "usage: wamctl contacts <query>")
		os.Exit(1)
	}
	q := url.Values{}
	q.Set("q", args[0])
	var resp struct {
		Contacts []store.Contact `json:"contacts"`
	}
	c.get("/api/contacts", q, &resp)
	if len(resp.Contacts) == 0 {
		fmt.Println("No contacts found.")
		return
	}
	for _, ct := range resp.Contacts {
		fmt.Printf("%-30s %-18s %s\n", ct.Name, ct.PhoneNumber, ct.JID)
	}
}

func (c *client) cmdPartitions(args []string) {
	if len(args) < 1 {
		fmt.Fprintln(os.Stderr, "usage: wamctl partitions <size> [chat-jid]")
		os.Exit(1)
	}
	req := map[string]any{}
	var size int
	if _, err := fmt.Sscanf(args[0], "%d", &size); err != nil {
		fmt.Fprintf(os.Stderr, "error: invalid partition size %q\n", args[0])
		os.Exit(1)
	}
	req["partition_size"] = size
	if len(args) > 1 {
		req["chat_jid"] = args[1]
	}
	var resp struct {
		ID         string `json:"id"`
		TotalCount int    `json:"total_count"`
		Partitions []struct {
			Cursor string `json:"cursor"`
			Limit  int    `json:"limit"`
		} `json:"partitions"`
	}
	c.post("/api/partitions", req, &resp)
	fmt.Printf("Plan %s: %d messages in %d partitions\n", resp.ID, resp.TotalCount, len(resp.Partitions))
	for i, p := range resp.Partitions {
		cursor := p.Cursor
		if cursor == "" {
			cursor = "(start)"
		}
		fmt.Printf("  %3d  limit=%-5d cursor=%s\n", i, p.Limit, cursor)
	}
}

func (c *client) cmdSend(args []string) {
	if len(args) < 2 {
		fmt.Fprintln(os.Stderr, "usage: wamctl send <recipient> <message>")
		os.Exit(1)
	}
	var resp struct {
		Success bool   `json:"success"`
		Message string `json:"message"`
	}
	c.post("/api/send", map[string]any{"recipient": args[0], "message": args[1]}, &resp)
	fmt.Printf("Success: %v - %s\n", resp.Success, resp.Message)
	if !resp.Success {
		os.Exit(1)
	}
}

func (c *client) cmdDownload(args []string) {
	if len(args) < 2 {
		fmt.Fprintln(os.Stderr, "usage: wamctl download <message-id> <chat-jid>")
		os.Exit(1)
	}
	var resp struct {
		Success bool   `json:"success"`
		Path    string `json:"path"`
	}
	c.post("/api/download", map[string]any{"message_id": args[0], "chat_jid": args[1]}, &resp)
	fmt.Println(resp.Path)
}
