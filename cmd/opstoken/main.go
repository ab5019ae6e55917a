// Command opstoken prints a signed operator token for the ops API, using the
// same JWT_SECRET_KEY as the worker.
package main

import (
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/cmlabs-hris/timeclock-reconciler/internal/config"
	"github.com/cmlabs-hris/timeclock-reconciler/internal/pkg/jwt"
)

func main() {
	subject := flag.String("sub", "", "operator name recorded in the token")
	ttl := flag.Duration("ttl", 0, "token lifetime (defaults to JWT_OPERATOR_EXPIRATION_TIME)")
	flag.Parse()

	jwtConfig, err := config.LoadJWT()
	if err != nil {
		fmt.Fprintln(os.Stderr, "Error loading config:", err)
		os.Exit(1)
	}

	expiration := jwtConfig.OperatorExpiration
	if *ttl > 0 {
		expiration = *ttl
	}

	token, expiresAt, err := jwt.NewJWTService(jwtConfig.Secret, expiration).GenerateOperatorToken(*subject)
	if err != nil {
		fmt.Fprintln(os.Stderr, "Error generating token:", err)
		os.Exit(1)
	}

	fmt.Fprintf(os.Stderr, "expires at %s\n", time.Unix(expiresAt, 0).Format(time.RFC3339))
	fmt.Println(token)
}
