package danesh

// ServerConf configures the http server
type ServerConf struct {
	IPListen          string   `yaml:"ip_listen"`
	Port              int      `yaml:"port"`
	TLS               tlsConf  `yaml:"tls"`
	TrustedProxies    []string `yaml:"trusted_proxies"`
	ForwardedIPHeader string   `yaml:"forwarded_ip_header"`
	// ExternalURL is the public base URL of the portal, e.g. https://danesh.example.ir
	ExternalURL string `yaml:"external_url"`
	// AllowedOrigins lists the origins of the single page client that may
	// call the API with credentials
	AllowedOrigins []string `yaml:"allowed_origins"`
	// WebRoot is a directory with the built client; it is served for all
	// non-api paths with index.html as fallback
	WebRoot string `yaml:"web_root"`
	// BodyLimit is the maximum request body size in bytes
	BodyLimit int `yaml:"body_limit"`
}

type tlsConf struct {
	Enabled      bool   `yaml:"enabled"`
	RedirectHTTP bool   `yaml:"redirect_http"`
	Cert         string `yaml:"cert"`
	Key          string `yaml:"key"`
}
