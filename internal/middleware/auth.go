package middleware

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"

	apperrors "smsledger/internal/errors"
	"smsledger/internal/validator"
)

const (
	// DeviceIDKey is the Gin context key holding the caller's device id.
	DeviceIDKey = "deviceID"
	// DeviceIDHeader carries the device id on unauthenticated requests.
	DeviceIDHeader = "X-Device-ID"

	tokenIssuer    = "smsledger-api"
	tokenTypeValue = "device"
)

// DeviceClaims represents the claims in a device token
type DeviceClaims struct {
	DeviceID  string `json:"device_id"`
	TokenType string `json:"token_type"`
	jwt.RegisteredClaims
}

// GenerateDeviceToken issues an HS256 token bound to deviceID.
func GenerateDeviceToken(deviceID string, secret []byte, ttl time.Duration) (string, time.Time, error) {
	if !validator.ValidDeviceID(deviceID) {
		return "", time.Time{}, apperrors.ErrInvalidDeviceID
	}
	now := time.Now()
	expiresAt := now.Add(ttl)
	claims := &DeviceClaims{
		DeviceID:  deviceID,
		TokenType: tokenTypeValue,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(expiresAt),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			Issuer:    tokenIssuer,
			Subject:   deviceID,
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(secret)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("sign device token: %w", err)
	}
	return signed, expiresAt, nil
}

// ValidateDeviceToken parses a device token and returns its claims.
func ValidateDeviceToken(tokenString string, secret []byte) (*DeviceClaims, error) {
	claims := &DeviceClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return secret, nil
	}, jwt.WithIssuer(tokenIssuer))

	if err != nil || !token.Valid {
		return nil, errors.New("invalid device token")
	}
	if claims.TokenType != tokenTypeValue || !validator.ValidDeviceID(claims.DeviceID) {
		return nil, errors.New("token is not a device token")
	}
	return claims, nil
}

// DeviceIdentity resolves the calling device. A Bearer device token takes
// precedence over the X-Device-ID header. Requests with neither pass through
// without a device; RequireDevice rejects them where one is needed.
func DeviceIdentity(secret []byte) gin.HandlerFunc {
	return func(c *gin.Context) {
		if authHeader := c.GetHeader("Authorization"); authHeader != "" {
			parts := strings.Split(authHeader, " ")
			if len(parts) != 2 || parts[0] != "Bearer" {
				abortWithError(c, apperrors.ErrUnauthorized)
				return
			}
			claims, err := ValidateDeviceToken(parts[1], secret)
			if err != nil {
				abortWithError(c, apperrors.ErrUnauthorized)
				return
			}
			c.Set(DeviceIDKey, claims.DeviceID)
			c.Next()
			return
		}

		if deviceID := strings.TrimSpace(c.GetHeader(DeviceIDHeader)); deviceID != "" {
			if !validator.ValidDeviceID(deviceID) {
				abortWithError(c, apperrors.ErrInvalidDeviceID)
				return
			}
			c.Set(DeviceIDKey, deviceID)
		}
		c.Next()
	}
}

// RequireDevice aborts with DEVICE_ID_REQUIRED when no device was resolved.
func RequireDevice() gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.GetString(DeviceIDKey) == "" {
			abortWithError(c, apperrors.ErrDeviceIDRequired)
			return
		}
		c.Next()
	}
}
