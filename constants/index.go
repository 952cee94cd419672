package constants

const (
	ROLE_ADMIN = "ADMIN"
	ROLE_OPS   = "OPS"
)

const (
	MISSING_LOGIN_INPUT  = "Username and password are required"
	INVALID_USERNAME     = "Username does not exist"
	INVALID_PASSWORD     = "Wrong password"
	ACCOUNT_NOT_ACTIVE   = "Account is disabled"
	ERROR_INTERNAL_ERROR = "Internal server error"
)

const (
	DEFAULT_CURRENCY = "USD"
	DEFAULT_COUNTRY  = "US"

	DEFAULT_PAGE_SIZE = 10
	MAX_PAGE_SIZE     = 100
)
