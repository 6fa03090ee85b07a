package config

type AppConfig struct {
	APIPort     string `env:"PORT,required" envDefault:"12222"`
	APIKey      string `env:"API_KEY,required"`
	RabbitMQURL string `env:"RABBITMQ_URL"`
	AppSource   string `env:"APP_SOURCE" envDefault:"mailmirror"`
}

type DatabaseConfig struct {
	Host            string `env:"MAILMIRROR_POSTGRES_HOST,required"`
	Port            string `env:"MAILMIRROR_POSTGRES_PORT,required"`
	User            string `env:"MAILMIRROR_POSTGRES_USER,required"`
	DBName          string `env:"MAILMIRROR_POSTGRES_DB_NAME,required"`
	Password        string `env:"MAILMIRROR_POSTGRES_PASSWORD,required"`
	MaxConn         int    `env:"MAILMIRROR_POSTGRES_DB_MAX_CONN"`
	MaxIdleConn     int    `env:"MAILMIRROR_POSTGRES_DB_MAX_IDLE_CONN"`
	ConnMaxLifetime int    `env:"MAILMIRROR_POSTGRES_DB_CONN_MAX_LIFETIME"`
	LogLevel        string `env:"MAILMIRROR_POSTGRES_LOG_LEVEL" envDefault:"WARN"`
	SSLMode         string `env:"MAILMIRROR_POSTGRES_SSL_MODE" envDefault:"require"`
}

type SyncConfig struct {
	// FolderPageSize bounds one page of the paginated folder listing.
	FolderPageSize int `env:"SYNC_FOLDER_PAGE_SIZE" envDefault:"100"`
	// MessagePageSize bounds the flat top-N message pull per account.
	MessagePageSize int `env:"SYNC_MESSAGE_PAGE_SIZE" envDefault:"25"`
	// MaxPageRetries is the retry budget for one remote page fetch.
	MaxPageRetries int `env:"SYNC_MAX_PAGE_RETRIES" envDefault:"3"`
}

type OutlookConfig struct {
	ClientID string `env:"OUTLOOK_CLIENT_ID"`
	TenantID string `env:"OUTLOOK_TENANT_ID" envDefault:"common"`
	GraphURL string `env:"OUTLOOK_GRAPH_URL" envDefault:"https://graph.microsoft.com/v1.0"`
}

type GmailConfig struct {
	ClientID     string `env:"GMAIL_CLIENT_ID"`
	ClientSecret string `env:"GMAIL_CLIENT_SECRET"`
	APIBaseURL   string `env:"GMAIL_API_BASE_URL" envDefault:"https://gmail.googleapis.com/gmail/v1"`
}

type AuthConfig struct {
	// TokenDir holds one cached OAuth token file per account.
	TokenDir string `env:"AUTH_TOKEN_DIR" envDefault:".tokens"`
}

type R2StorageConfig struct {
	AccountID        string `env:"CLOUDFLARE_R2_ACCOUNT_ID"`
	AccessKeyID      string `env:"CLOUDFLARE_R2_ACCESS_KEY_ID"`
	AccessKeySecret  string `env:"CLOUDFLARE_R2_ACCESS_KEY_SECRET"`
	AttachmentBucket string `env:"BUCKET_NAME_ATTACHMENT" envDefault:"attachments"`
}
