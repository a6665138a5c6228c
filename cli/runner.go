package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/jessevdk/go-flags"

	"github.com/viant/storegate"
	"github.com/viant/storegate/auth/session"
	"github.com/viant/storegate/config"
	"github.com/viant/storegate/gateway/failure"
)

// Run parses args and executes the selected command.
func Run(args []string) error {
	return run(context.Background(), args, os.Stdout, nil)
}

func run(ctx context.Context, args []string, out io.Writer, opts []storegate.Option) error {
	options := &Options{}
	parser := flags.NewParser(options, flags.Default)
	if _, err := parser.ParseArgs(args); err != nil {
		return err
	}
	if parser.Active == nil {
		return fmt.Errorf("command was not specified")
	}
	clientOptions, err := options.clientOptions(ctx)
	if err != nil {
		return err
	}
	opts = append([]storegate.Option{storegate.WithNavigator(hint(out))}, opts...)
	client, err := storegate.New(ctx, clientOptions, opts...)
	if err != nil {
		return err
	}
	defer client.Close()

	switch parser.Active.Name {
	case "login":
		installURL, err := client.Session.Login(ctx, options.Login.Args.Shop)
		if err != nil {
			return err
		}
		_, err = fmt.Fprintln(out, installURL)
		return err
	case "callback":
		params, err := session.ParseCallback(options.Callback.Args.URL)
		if err != nil {
			return err
		}
		if _, err = client.Session.CompleteLogin(ctx, params); err != nil {
			return fmt.Errorf("%s", failure.UserMessage(err))
		}
		_, err = fmt.Fprintln(out, "logged in")
		return err
	case "refresh":
		if !client.Session.Refresh(ctx) {
			return fmt.Errorf("refresh failed, login again")
		}
		_, err = fmt.Fprintln(out, "refreshed")
		return err
	case "logout":
		client.Session.Logout(ctx)
		_, err = fmt.Fprintln(out, "logged out")
		return err
	case "status":
		return printStatus(out, client)
	case "get":
		var body json.RawMessage
		if err = client.Gateway.Get(ctx, options.Get.Args.Path, &body); err != nil {
			return fmt.Errorf("%s", failure.UserMessage(err))
		}
		_, err = fmt.Fprintln(out, string(body))
		return err
	}
	return fmt.Errorf("unsupported command: %v", parser.Active.Name)
}

// clientOptions merges the config file under explicit flags.
func (o *Options) clientOptions(ctx context.Context) (*config.Options, error) {
	if o.ConfigURL == "" {
		return &o.Options, nil
	}
	ret, err := config.Load(ctx, o.ConfigURL)
	if err != nil {
		return nil, err
	}
	ret.Merge(&o.Options)
	return ret, nil
}

type status struct {
	Authenticated bool        `json:"authenticated"`
	Email         string      `json:"email,omitempty"`
	Permissions   []string    `json:"permissions,omitempty"`
	Stores        interface{} `json:"stores,omitempty"`
}

func printStatus(out io.Writer, client *storegate.Client) error {
	ret := &status{Authenticated: client.Session.IsAuthenticated()}
	if current, ok := client.Session.Session(); ok {
		ret.Email = current.Email
		ret.Permissions = current.Permissions
		if len(current.Stores) > 0 {
			ret.Stores = current.Stores
		}
	}
	data, err := json.MarshalIndent(ret, "", "  ")
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(out, string(data))
	return err
}

func hint(out io.Writer) session.Navigator {
	return session.NavigatorFunc(func(_ context.Context, route string) {
		_, _ = fmt.Fprintf(out, "session expired (%v), run: storegate login <shop>\n", route)
	})
}
