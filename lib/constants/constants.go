package constants

const (
	SSM_PATH = "/crm"

	ALLOWED_ORIGINS   = "/crm/ALLOWED_ORIGINS"
	DATABASE_ENDPOINT = "/crm/DATABASE_ENDPOINT"
	DATABASE_PORT     = "/crm/DATABASE_PORT"
	DATABASE_NAME     = "/crm/DATABASE_NAME"
	DATABASE_USERNAME = "/crm/DATABASE_USERNAME"
	DATABASE_PASSWORD = "/crm/DATABASE_PASSWORD"
	SSL_MODE          = "/crm/SSL_MODE"

	GOOGLE_CLIENT_ID     = "/crm/GOOGLE_CLIENT_ID"
	GOOGLE_CLIENT_SECRET = "/crm/GOOGLE_CLIENT_SECRET"
	GOOGLE_REDIRECT_URI  = "/crm/GOOGLE_REDIRECT_URI"

	DOCUSIGN_INTEGRATION_KEY = "/crm/DOCUSIGN_INTEGRATION_KEY"
	DOCUSIGN_CLIENT_SECRET   = "/crm/DOCUSIGN_CLIENT_SECRET"
	DOCUSIGN_REDIRECT_URI    = "/crm/DOCUSIGN_REDIRECT_URI"
	DOCUSIGN_AUTH_BASE       = "/crm/DOCUSIGN_AUTH_BASE"

	OAUTH_STATE_SECRET = "/crm/OAUTH_STATE_SECRET"

	ATTACHMENT_BUCKET_NAME = "/crm/ATTACHMENT_BUCKET_NAME"

	RESEND_API_KEY    = "/crm/RESEND_API_KEY"
	RESEND_FROM_EMAIL = "/crm/RESEND_FROM_EMAIL"

	DRIVER_NAME = "postgres"

	// AWS client settings shared by lib/clients. Local runs point every AWS
	// client at the same LocalStack endpoint.
	AWS_REGION          = "us-east-2"
	LOCALSTACK_ENDPOINT = "http://docker.for.mac.host.internal:4566"
)
