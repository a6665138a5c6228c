package cli

import "github.com/viant/storegate/config"

// Options are the global flags followed by one command.
type Options struct {
	ConfigURL string `short:"c" long:"config" env:"STOREGATE_CONFIG" description:"config file URL (yaml)"`
	config.Options

	Login    LoginCommand    `command:"login" description:"start the shopify install handshake"`
	Callback CallbackCommand `command:"callback" description:"complete login with the redirect url"`
	Refresh  struct{}        `command:"refresh" description:"exchange the refresh token"`
	Logout   struct{}        `command:"logout" description:"revoke and clear the local session"`
	Status   struct{}        `command:"status" description:"print the local session"`
	Get      GetCommand      `command:"get" description:"GET an api path through the gateway"`
}

type LoginCommand struct {
	Args struct {
		Shop string `positional-arg-name:"shop" description:"store name or myshopify.com domain"`
	} `positional-args:"yes" required:"yes"`
}

type CallbackCommand struct {
	Args struct {
		URL string `positional-arg-name:"url" description:"callback url or query string"`
	} `positional-args:"yes" required:"yes"`
}

type GetCommand struct {
	Args struct {
		Path string `positional-arg-name:"path" description:"api path, i.e. /stores"`
	} `positional-args:"yes" required:"yes"`
}
