package config

import (
	"io/fs"
	"time"
)

// -----------------------------------------------------------------------------
// Build Information
// -----------------------------------------------------------------------------

// Build variables are injected via -ldflags.
var (
	Version = "dev"
	Commit  = "none"
	Date    = "unknown"
)

// UserAgent identifies the HTTP client used for remote appointment lists.
var UserAgent = "Chronos-ICS/" + Version

// -----------------------------------------------------------------------------
// Application Constants
// -----------------------------------------------------------------------------

const (
	AppName           = "Chronos ICS"
	AppCommand        = "chronos-ics"
	AppID             = "com.github.tartampluch.chronos-ics"
	KeyringService    = "com.github.tartampluch.chronos-ics"
	LocalhostBindAddr = "127.0.0.1"
	LogFileName       = "converter.log"
	EnvPrefix         = "CHRONOS_"
)

// -----------------------------------------------------------------------------
// Exit Codes
// -----------------------------------------------------------------------------

const (
	ExitCodeSuccess     = 0
	ExitCodeError       = 1
	ExitCodeUsage       = 2
	ExitCodeNoEvents    = 3
	ExitCodeInputAbsent = 4
	ExitCodeOutputWrite = 5
)

// -----------------------------------------------------------------------------
// System & File Permissions
// -----------------------------------------------------------------------------

const (
	// FilePermUserRW represents -rw------- (Read/Write for owner only).
	// Used for logs and temporary output files.
	FilePermUserRW fs.FileMode = 0600

	// FilePermPublic represents -rw-r--r--, the mode of the final calendar file.
	FilePermPublic fs.FileMode = 0644

	// DirPermUserRWX represents drwx------ (Read/Write/Exec for owner only).
	DirPermUserRWX fs.FileMode = 0700

	// ChannelBufferSize defines the standard buffer size for internal signaling channels.
	ChannelBufferSize = 1
)

// -----------------------------------------------------------------------------
// CLI Flags & Descriptions
// -----------------------------------------------------------------------------

const (
	FlagDebug    = "debug"
	FlagConfig   = "config"
	FlagLogFile  = "log-file"
	FlagLang     = "lang"
	FlagTimezone = "tz"
	FlagInput    = "input"
	FlagOutput   = "output"
	FlagProdID   = "prodid"
	FlagDomain   = "uid-domain"
	FlagInverted = "inverted"
	FlagPrint    = "print"
	FlagWebUser  = "web-user"
	FlagPort     = "port"
	FlagRefresh  = "refresh"

	FlagDescDebug    = "Enable debug logging"
	FlagDescConfig   = "Config file path (.yaml, .yml or .toml)"
	FlagDescLogFile  = "Log file path (empty disables the log file)"
	FlagDescLang     = "Language for user messages (en, fr)"
	FlagDescTimezone = "IANA timezone applied to every appointment"
	FlagDescInput    = "Appointment list: file path, - for stdin, or http(s) URL"
	FlagDescOutput   = "Calendar file to write, - for stdout"
	FlagDescProdID   = "PRODID written into the calendar"
	FlagDescDomain   = "Domain suffix of generated UIDs"
	FlagDescInverted = "Policy for end times before start times: pass, reject or swap"
	FlagDescPrint    = "Print the generated calendar after writing it"
	FlagDescWebUser  = "Username for HTTP basic auth on remote input"
	FlagDescPort     = "HTTP port for the serve command"
	FlagDescRefresh  = "Cron schedule used by the serve command to regenerate the calendar"

	MsgVersionOutput = "%s version %s (commit %s, built %s, %s/%s)\n"
)

// -----------------------------------------------------------------------------
// Environment Variables
// -----------------------------------------------------------------------------

const (
	EnvTimezone    = EnvPrefix + "TZ"
	EnvInput       = EnvPrefix + "INPUT"
	EnvOutput      = EnvPrefix + "OUTPUT"
	EnvLang        = EnvPrefix + "LANG"
	EnvWebUser     = EnvPrefix + "WEB_USER"
	EnvWebPassword = EnvPrefix + "WEB_PASSWORD"
	EnvInverted    = EnvPrefix + "INVERTED"
	EnvPrint       = EnvPrefix + "PRINT"
)

// -----------------------------------------------------------------------------
// Default Values & Business Logic
// -----------------------------------------------------------------------------

const (
	DefaultTimezone   = "America/New_York"
	DefaultInputFile  = "appts.txt"
	DefaultOutputFile = "appointments.ics"
	DefaultLanguage   = "en"
	DefaultPort       = "18081"
	DefaultRefresh    = "*/15 * * * *"
	DefaultUIDDomain  = "example.com"

	// StdStream is the path placeholder for stdin (input) or stdout (output).
	StdStream = "-"
)

// SupportedLanguages defines the list of available message languages (ISO 639-1).
var SupportedLanguages = []string{"en", "fr"}

// Inverted range policies.
const (
	InvertedPass   = "pass"
	InvertedReject = "reject"
	InvertedSwap   = "swap"
)

// -----------------------------------------------------------------------------
// Standards: iCalendar
// -----------------------------------------------------------------------------

const (
	ICalVersion = "2.0"
	ICalProdid  = "-//Chronos ICS//example.com//"
	ICalScale   = "GREGORIAN"

	PropUID      = "UID"
	PropSummary  = "SUMMARY"
	PropDTStart  = "DTSTART"
	PropDTEnd    = "DTEND"
	PropDTStamp  = "DTSTAMP"
	PropVersion  = "VERSION"
	PropProdid   = "PRODID"
	PropCalScale = "CALSCALE"
)

// -----------------------------------------------------------------------------
// Data Formats
// -----------------------------------------------------------------------------

const (
	// Accepted date layouts, tried in order. The time part is always 12-hour H:MM AM/PM.
	DateLayoutComma   = "January 2, 2006"
	DateLayoutNoComma = "January 2 2006"
	TimeLayout        = "3:04 PM"

	// UIDTimeLayout formats the start instant without separators.
	UIDTimeLayout = "20060102T150405"
	FormatUID     = "%s-%d-%s@%s"

	// RunIDLength is the number of nonce characters kept in each UID.
	RunIDLength = 8
)

// -----------------------------------------------------------------------------
// Network & Timeouts
// -----------------------------------------------------------------------------

const (
	HTTPTimeout         = 30 * time.Second
	ShutdownTimeout     = 5 * time.Second
	ServerReadTimeout   = 10 * time.Second
	ServerWriteTimeout  = 30 * time.Second
	ServerIdleTimeout   = 60 * time.Second
	RetryAfterSeconds   = "10"
	AllowedMethods      = "GET, HEAD"
	MaxHTTPResponseSize = 16 * 1024 * 1024 // 16MB of appointment text is plenty
	SchemeHTTP          = "http"
	SchemeHTTPS         = "https"
	RouteRoot           = "/"
	RouteHealth         = "/healthz"
	AddrSeparator       = ":"
)

// -----------------------------------------------------------------------------
// HTTP Headers & MIME Types
// -----------------------------------------------------------------------------

const (
	HeaderContentType     = "Content-Type"
	HeaderCacheControl    = "Cache-Control"
	HeaderETag            = "ETag"
	HeaderLastModified    = "Last-Modified"
	HeaderRetryAfter      = "Retry-After"
	HeaderAllow           = "Allow"
	HeaderXContentType    = "X-Content-Type-Options"
	HeaderUserAgent       = "User-Agent"
	HeaderIfNoneMatch     = "If-None-Match"
	HeaderIfModifiedSince = "If-Modified-Since"

	MimeTextCalendar    = "text/calendar; charset=utf-8"
	MimeTextPlain       = "text/plain; charset=utf-8"
	CacheControlNoStore = "no-store"
	MimeNoSniff         = "nosniff"
	CacheControlPrivate = "private, no-cache"

	// FormatETag expects a string argument.
	FormatETag = `"%s"`

	// FormatHealth expects the event count and the RFC 3339 generation time.
	FormatHealth = "ok events=%d generated=%s\n"
)

// -----------------------------------------------------------------------------
// Error Messages (Technical/Logs)
// -----------------------------------------------------------------------------

const (
	ErrLineMismatch     = "line does not match appointment grammar"
	ErrTimeNormalize    = "could not parse date and time"
	ErrInvertedRange    = "event ends before it starts"
	ErrNoEvents         = "no events were parsed from the input"
	ErrInputNotFound    = "input file not found"
	ErrInputRead        = "failed to read input"
	ErrOutputWrite      = "failed to write calendar file"
	ErrUnknownTimezone  = "unknown timezone"
	ErrInvertedPolicy   = "unsupported inverted range policy"
	ErrFetcherMissing   = "internal error: network fetcher is not initialized"
	ErrWorkerIncomplete = "internal error: refresher needs a generator and a publisher"
	ErrServerStartup    = "server startup failed"
	ErrServerShutdown   = "server shutdown failed"
	ErrPortRequired     = "server port is required"
	ErrInvalidURL       = "invalid URL structure"
	ErrProtocol         = "unsupported protocol scheme (http/https only)"
	ErrICalEncode       = "failed to encode iCalendar data"
	ErrLogFile          = "failed to open log file"
	ErrCacheDir         = "could not determine user cache dir"
	ErrCreateDir        = "could not create app cache dir"
	ErrAppFailed        = "application failed unexpectedly"
	ErrLocalesAccess    = "failed to access embedded locales"
	ErrLocaleLoad       = "failed to load locale file"
	ErrConfigPathEmpty  = "config path is empty"
	ErrConfigRead       = "failed to read config file"
	ErrConfigDecode     = "failed to decode config file"
	ErrConfigFormat     = "unsupported config file extension"
	ErrRefreshSchedule  = "invalid refresh schedule"
	ErrKeyringLookup    = "keyring lookup failed"
	ErrPrintToStdout    = "--print cannot be combined with --output -"
	ErrPasswordRead     = "failed to read password from stdin"
	ErrPasswordEmpty    = "password is empty"
)

// -----------------------------------------------------------------------------
// HTTP Server Responses
// -----------------------------------------------------------------------------

const (
	HTTPMsgInitializing = "Calendar initializing, please try again shortly."
	HTTPMsgMethodNotAll = "Method Not Allowed"
)

// -----------------------------------------------------------------------------
// Log Messages
// -----------------------------------------------------------------------------

const (
	MsgLogWarning     = "Warning: %s at %s: %v\n"
	MsgAppStarting    = "Starting application"
	MsgAppStop        = "Application stopped"
	MsgReadingInput   = "Attempting to read appointments"
	MsgProcessingLine = "Processing line"
	MsgSkippedBlank   = "Skipping blank line"
	MsgParseFailed    = "Failed to parse appointment"
	MsgNormalizeFail  = "Error parsing datetime"
	MsgSkippedEvent   = "Skipped event due to datetime parsing error"
	MsgInvertedRange  = "Event ends before it starts"
	MsgEventAdded     = "Added event"
	MsgNoEvents       = "No events were parsed from the file. Check if the file is empty or if the format matches the expected pattern."
	MsgGenSuccess     = "Calendar generation successful"
	MsgFileWritten    = "ICS file has been created successfully"
	MsgInputMissing   = "Input file was not found"
	MsgInputFailed    = "An error occurred while reading the input"
	MsgWriteFailed    = "Error writing to ICS file"
	MsgFetchStart     = "Initiating appointment list download"
	MsgFetchStatus    = "Server returned error status"
	MsgFetchOK        = "Appointment list downloading"
	MsgServerListen   = "HTTP server listening"
	MsgServerStop     = "Shutting down HTTP server..."
	MsgCacheUpdated   = "Calendar cache updated"
	MsgWorkerStart    = "Background refresher started"
	MsgWorkerStop     = "Refresher stopping due to context cancellation"
	MsgRefreshFailed  = "Refresh failed, keeping last good calendar"
	MsgRefreshDone    = "Refresh completed"
	MsgLocaleSkip     = "Skipping non-locale file"
	MsgLocaleBadName  = "Skipping malformed locale filename"
	MsgLocaleLoaded   = "Locale loaded successfully"
	MsgTransMissing   = "Missing translation key"
	MsgPassFail       = "Password retrieval failed (might be empty)"
	MsgConfigLoaded   = "Config file loaded"
	MsgEffectiveConf  = "Effective configuration"
)

// -----------------------------------------------------------------------------
// Translation Keys (I18n)
// -----------------------------------------------------------------------------

const (
	TKeyFileCreated   = "msg_file_created"     // Requires Path, Count, Size
	TKeyNoEvents      = "msg_no_events"        // Requires LogPath
	TKeyInputMissing  = "msg_input_missing"    // Requires Path
	TKeyWriteFailed   = "msg_write_failed"     // Requires Error
	TKeyRunCompleted  = "msg_run_completed"    // Requires LogPath
	TKeyPrintHeader   = "msg_print_header"     // No data
	TKeyPrintFooter   = "msg_print_footer"     // No data
	TKeyServeStarted  = "msg_serve_started"    // Requires URL, Schedule
	TKeyConvertFailed = "msg_convert_failed"   // Requires LogPath
	TKeyPassSaved     = "msg_password_saved"   // Requires User
	TKeyPassDeleted   = "msg_password_deleted" // Requires User
)

// -----------------------------------------------------------------------------
// Structured Logging Keys (slog)
// -----------------------------------------------------------------------------

const (
	LogKeyComponent = "component"
	LogKeyError     = "error"
	LogKeyURL       = "url"
	LogKeyStatus    = "status_code"
	LogKeyFile      = "file"
	LogKeyLang      = "lang"
	LogKeyKey       = "key"
	LogKeyPort      = "port"
	LogKeySource    = "source"
	LogKeyUser      = "user"
	LogKeyLine      = "line"
	LogKeyLineNum   = "line_num"
	LogKeySummary   = "summary"
	LogKeyDate      = "date"
	LogKeyTime      = "time"
	LogKeyStart     = "start"
	LogKeyEnd       = "end"
	LogKeyUID       = "uid"
	LogKeyPolicy    = "policy"
	LogKeyTimezone  = "timezone"
	LogKeyRunID     = "run_id"
	LogKeySizeBytes = "size_bytes"
	LogKeyETag      = "etag"
	LogKeyStats     = "stats"
	LogKeyLines     = "lines"
	LogKeyBlank     = "blank"
	LogKeyParsed    = "parsed"
	LogKeyBadLines  = "skipped_parse"
	LogKeyBadTimes  = "skipped_datetime"
	LogKeyInverted  = "inverted"
	LogKeyRejected  = "rejected"
	LogKeyEvents    = "events"
	LogKeyDuration  = "duration_ms"
	LogKeySchedule  = "schedule"
	LogKeyPath      = "path"
	LogKeyConfig    = "config"

	// Startup Info Keys
	LogKeyBuild   = "build"
	LogKeyApp     = "app"
	LogKeyVersion = "version"
	LogKeyGoVer   = "go_version"
	LogKeyEnv     = "env"
	LogKeyOS      = "os"
	LogKeyArch    = "arch"
	LogKeyPID     = "pid"
)

// -----------------------------------------------------------------------------
// Log Components
// -----------------------------------------------------------------------------

const (
	CompParser     = "parser"
	CompNormalizer = "normalizer"
	CompAssembler  = "assembler"
	CompEngine     = "engine"
	CompServer     = "server"
	CompFetcher    = "fetcher"
	CompWorker     = "worker"
	CompMain       = "main"
	CompConfig     = "config"
	CompI18n       = "i18n"
)
