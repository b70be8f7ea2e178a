package config

import (
	"os"
	"path/filepath"
	"strings"
	"time"
	"unicode"

	"github.com/go-viper/mapstructure/v2"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env/v2"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
	"github.com/pkg/errors"
)

const (
	defaultPath            = "."
	defaultDeliveryFeeKobo = 450000
	defaultClusterLimit    = 5
)

type Config struct {
	Env struct {
		Env         string `json:"env" yaml:"env"`
		ServiceName string `json:"serviceName" yaml:"serviceName"`
		Debug       bool   `json:"debug" yaml:"debug"`
		Log         Log    `json:"log" yaml:"log"`
	} `json:"env" yaml:"env"`

	HTTP struct {
		Port     int `json:"port" yaml:"port"`
		Timeouts struct {
			ReadTimeout       time.Duration `json:"readTimeout" yaml:"readTimeout"`
			ReadHeaderTimeout time.Duration `json:"readHeaderTimeout" yaml:"readHeaderTimeout"`
			WriteTimeout      time.Duration `json:"writeTimeout" yaml:"writeTimeout"`
			IdleTimeout       time.Duration `json:"idleTimeout" yaml:"idleTimeout"`
		} `json:"timeouts" yaml:"timeouts"`
	} `json:"http" yaml:"http"`

	Mongo *MongoConfig `json:"mongo" yaml:"mongo"`

	// Twilio configuration for the WhatsApp transport
	Twilio *TwilioConfig `json:"twilio" yaml:"twilio"`

	// Paystack configuration for payment links and webhook verification
	Paystack *PaystackConfig `json:"paystack" yaml:"paystack"`

	// OpenAI configuration for intent classification and slot extraction
	OpenAI *OpenAIConfig `json:"openai" yaml:"openai"`

	// Admin allow-list and dashboard auth
	Admin *AdminConfig `json:"admin" yaml:"admin"`

	// Commerce pricing and flow defaults
	Commerce *CommerceConfig `json:"commerce" yaml:"commerce"`

	// Proofs configuration for payment-proof media storage
	Proofs *ProofsConfig `json:"proofs" yaml:"proofs"`

	// QRCode configuration for cluster invite QR images
	QRCode *QRCodeConfig `json:"qrcode" yaml:"qrcode"`
}

type Log struct {
	Pretty bool   `json:"pretty" yaml:"pretty"`
	Level  string `json:"level" yaml:"level"`
}

// MongoConfig defines the document-store connection
type MongoConfig struct {
	URI      string        `json:"uri" yaml:"uri"`
	Database string        `json:"database" yaml:"database"`
	Timeout  time.Duration `json:"timeout" yaml:"timeout"`
}

// TwilioConfig defines the outbound WhatsApp transport
type TwilioConfig struct {
	AccountSID        string `json:"accountSid" yaml:"accountSid"`
	AuthToken         string `json:"authToken" yaml:"authToken"`
	FromNumber        string `json:"fromNumber" yaml:"fromNumber"`
	StatusCallbackURL string `json:"statusCallbackUrl" yaml:"statusCallbackUrl"`
}

// PaystackConfig defines the payment gateway credentials
type PaystackConfig struct {
	SecretKey string `json:"secretKey" yaml:"secretKey"`
	PublicKey string `json:"publicKey" yaml:"publicKey"`
	// Virtual email domain used when initializing transactions for phone-only members
	EmailDomain string `json:"emailDomain" yaml:"emailDomain"`
}

// OpenAIConfig defines the NLU provider
type OpenAIConfig struct {
	APIKey  string        `json:"apiKey" yaml:"apiKey"`
	Model   string        `json:"model" yaml:"model"`
	Timeout time.Duration `json:"timeout" yaml:"timeout"`
}

// AdminConfig defines the admin phone allow-list and dashboard auth
type AdminConfig struct {
	Phones []string `json:"phones" yaml:"phones"`
	// Bcrypt hash of the dashboard password
	DashPasswordHash string        `json:"dashPasswordHash" yaml:"dashPasswordHash"`
	JWTSecret        string        `json:"jwtSecret" yaml:"jwtSecret"`
	TokenTTL         time.Duration `json:"tokenTtl" yaml:"tokenTtl"`
}

// CommerceConfig defines pricing and flow defaults
type CommerceConfig struct {
	DeliveryFeeKobo     int64  `json:"deliveryFeeKobo" yaml:"deliveryFeeKobo"`
	DefaultClusterLimit int    `json:"defaultClusterLimit" yaml:"defaultClusterLimit"`
	PriceSheetURL       string `json:"priceSheetUrl" yaml:"priceSheetUrl"`
	PublicBaseURL       string `json:"publicBaseUrl" yaml:"publicBaseUrl"`

	// Membership plan prices in kobo
	Plans PlanPrices `json:"plans" yaml:"plans"`
}

// PlanPrices holds the membership plan amounts in kobo
type PlanPrices struct {
	Lifetime int64 `json:"lifetime" yaml:"lifetime"`
	Monthly  int64 `json:"monthly" yaml:"monthly"`
	Onetime  int64 `json:"onetime" yaml:"onetime"`
}

// ProofsConfig defines payment-proof media storage
type ProofsConfig struct {
	// Blob bucket URL, e.g. file:///var/lib/clustercart/uploads or s3://bucket
	BucketURL string `json:"bucketUrl" yaml:"bucketUrl"`
	// Public URL prefix under which stored proofs are served
	PublicPrefix string `json:"publicPrefix" yaml:"publicPrefix"`
}

// QRCodeConfig defines QR code generation configuration
type QRCodeConfig struct {
	Size                 int    `json:"size" yaml:"size"`
	ErrorCorrectionLevel string `json:"errorCorrectionLevel" yaml:"errorCorrectionLevel"`
}

// LoadWithEnv loads .yaml files through koanf.
func LoadWithEnv[T any](currEnv string, configPath ...string) (*T, error) {
	cfg := new(T)
	koanfInstance := koanf.New(".")

	// Build list of paths to search for config file
	searchPaths := []string{defaultPath}
	if len(configPath) != 0 {
		pwd, err := os.Getwd()
		if err != nil {
			return nil, errors.Wrap(err, "os.Getwd")
		}
		for _, path := range configPath {
			abs := filepath.Join(pwd, path)
			searchPaths = append(searchPaths, abs)
		}
	}

	// Try to find and load the config file
	var configFile string
	var found bool
	for _, path := range searchPaths {
		candidate := filepath.Join(path, currEnv+".yaml")
		if _, err := os.Stat(candidate); err == nil {
			configFile = candidate
			found = true

			break
		}
	}

	if !found {
		return nil, errors.Errorf("config file %s.yaml not found in any search path", currEnv)
	}

	// Load YAML config file
	if err := koanfInstance.Load(file.Provider(configFile), yaml.Parser()); err != nil {
		return nil, errors.Wrapf(err, "read %s config failed", currEnv)
	}

	existingConfigMap := koanfInstance.Raw()

	// Load environment variables
	if err := koanfInstance.Load(env.Provider(".", env.Opt{
		TransformFunc: func(k, v string) (string, any) {
			// Convert ENV_VAR_NAME to path and align each segment with existing YAML keys.
			// Example: PAYSTACK_SECRETKEY -> paystack.secretKey (not paystack.secretkey)
			key := canonicalizeEnvKey(k, existingConfigMap)

			return key, v
		},
	}), nil); err != nil {
		return nil, errors.Wrap(err, "load env variables failed")
	}

	// Unmarshal into the config struct (case-insensitive to match env vars)
	if err := koanfInstance.UnmarshalWithConf("", cfg, koanf.UnmarshalConf{
		DecoderConfig: &mapstructure.DecoderConfig{
			Result:           cfg,
			WeaklyTypedInput: true,
			DecodeHook: mapstructure.ComposeDecodeHookFunc(
				mapstructure.StringToTimeDurationHookFunc(),
			),
			MatchName: func(mapKey, fieldName string) bool {
				// Case-insensitive matching for env var overrides
				return strings.EqualFold(mapKey, fieldName)
			},
		},
	}); err != nil {
		return nil, errors.Wrapf(err, "unmarshal %s config failed", currEnv)
	}

	return cfg, nil
}

func New() (*Config, error) {
	cfg, err := LoadWithEnv[Config]("config", "config", "../config", "../../config")
	if err != nil {
		return nil, err
	}

	if cfg.Commerce == nil {
		cfg.Commerce = &CommerceConfig{}
	}
	if cfg.Commerce.DeliveryFeeKobo == 0 {
		cfg.Commerce.DeliveryFeeKobo = defaultDeliveryFeeKobo
	}
	if cfg.Commerce.DefaultClusterLimit == 0 {
		cfg.Commerce.DefaultClusterLimit = defaultClusterLimit
	}

	return cfg, nil
}

func canonicalizeEnvKey(rawKey string, existing map[string]any) string {
	segments := strings.Split(strings.ToLower(rawKey), "_")
	canonical := make([]string, 0, len(segments))
	current := existing

	for _, segment := range segments {
		if segment == "" {
			continue
		}

		if matched, next, ok := findExistingSegment(current, segment); ok {
			canonical = append(canonical, matched)
			current = next
		} else {
			canonical = append(canonical, segment)
			current = nil
		}
	}

	return strings.Join(canonical, ".")
}

func findExistingSegment(current map[string]any, segment string) (matched string, next map[string]any, ok bool) {
	if len(current) == 0 {
		return "", nil, false
	}

	needle := normalizeToken(segment)
	for key, value := range current {
		if normalizeToken(key) != needle {
			continue
		}

		child, _ := value.(map[string]any)

		return key, child, true
	}

	return "", nil, false
}

func normalizeToken(s string) string {
	var normalized strings.Builder
	normalized.Grow(len(s))

	for _, r := range s {
		if !unicode.IsLetter(r) && !unicode.IsDigit(r) {
			continue
		}
		normalized.WriteRune(unicode.ToLower(r))
	}

	return normalized.String()
}
