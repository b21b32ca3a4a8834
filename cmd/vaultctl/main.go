// Copyright 2024-2025 EMQ Technologies Co., Ltd.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Vaultctl manages secret vault artifact pairs: a table of printable noise
// and the recipe locating a secret inside it.
package main

import (
	"bufio"
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/urfave/cli"
	"golang.org/x/term"

	"github.com/lf-edge/ekuiper-vault/internal/conf"
	"github.com/lf-edge/ekuiper-vault/pkg/errorx"
	"github.com/lf-edge/ekuiper-vault/pkg/hidden"
	"github.com/lf-edge/ekuiper-vault/pkg/vault"
)

var (
	Version      = "unknown"
	LoadFileType = "relative"
)

const secretEnv = "VAULT_SECRET"

func main() {
	conf.LoadFileType = LoadFileType
	conf.InitConf()

	app := cli.NewApp()
	app.Version = Version
	app.Name = "vaultctl"
	app.Usage = "The command line tool for the eKuiper secret vault."

	pairFlags := []cli.Flag{
		cli.StringFlag{
			Name:  "table, t",
			Usage: "the location of the table artifact",
			Value: conf.Config.Vault.TablePath,
		},
		cli.StringFlag{
			Name:  "recipe, r",
			Usage: "the location of the recipe artifact",
			Value: conf.Config.Vault.RecipePath,
		},
	}

	app.Commands = []cli.Command{
		{
			Name:    "generate",
			Aliases: []string{"gen"},
			Usage:   "generate [-s $secret] [-t $table_file] [-r $recipe_file] [--size $table_size]",
			Flags: append([]cli.Flag{
				cli.StringFlag{
					Name:  "secret, s",
					Usage: "the secret to hide, falls back to " + secretEnv + " or an interactive prompt",
				},
				cli.IntFlag{
					Name:  "size",
					Usage: "the table size in bytes",
					Value: conf.Config.Vault.TableSize,
				},
			}, pairFlags...),
			Action: func(c *cli.Context) error {
				secret := c.String("secret")
				if secret == "" {
					secret = os.Getenv(secretEnv)
				}
				if secret == "" {
					s, err := promptSecret()
					if err != nil {
						return exitError(err)
					}
					secret = s
				}
				if err := vault.Generate(secret, c.String("table"), c.String("recipe"), c.Int("size")); err != nil {
					return exitError(err)
				}
				fmt.Printf("Generated table %s and recipe %s.\n", c.String("table"), c.String("recipe"))
				return nil
			},
		},
		{
			Name:  "show",
			Usage: "show [-t $table_file] [-r $recipe_file] [--unmask]",
			Flags: append([]cli.Flag{
				cli.BoolFlag{
					Name:  "unmask",
					Usage: "print the secret in plain text instead of the mask",
				},
			}, pairFlags...),
			Action: func(c *cli.Context) error {
				secret, err := vault.Reconstruct(c.String("table"), c.String("recipe"))
				if err != nil {
					return exitError(err)
				}
				if c.Bool("unmask") {
					fmt.Println(secret)
				} else {
					fmt.Println(hidden.HideString(secret))
				}
				return nil
			},
		},
		{
			Name:  "verify",
			Usage: "verify [-t $table_file] [-r $recipe_file]",
			Flags: pairFlags,
			Action: func(c *cli.Context) error {
				secret, err := vault.Reconstruct(c.String("table"), c.String("recipe"))
				if err != nil {
					return exitError(err)
				}
				fmt.Printf("The artifact pair is consistent, the secret has %d characters.\n", len(secret))
				return nil
			},
		},
	}

	app.Action = func(c *cli.Context) error {
		cli.ShowSubcommandHelp(c)
		return nil
	}

	sort.Sort(cli.FlagsByName(app.Flags))
	sort.Sort(cli.CommandsByName(app.Commands))

	if err := app.Run(os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "%v\n", err)
		os.Exit(1)
	}
}

// promptSecret reads the secret from the terminal without echo. Piped
// input is read as a single line so the tool stays scriptable.
func promptSecret() (string, error) {
	fd := int(os.Stdin.Fd())
	if term.IsTerminal(fd) {
		fmt.Print("Secret: ")
		b, err := term.ReadPassword(fd)
		fmt.Println()
		if err != nil {
			return "", fmt.Errorf("failed to read secret: %w", err)
		}
		return string(b), nil
	}
	line, err := bufio.NewReader(os.Stdin).ReadString('\n')
	if err != nil && line == "" {
		return "", fmt.Errorf("failed to read secret: %w", err)
	}
	return strings.TrimRight(line, "\r\n"), nil
}

// exitError maps the error taxonomy onto a labeled non zero exit.
func exitError(err error) error {
	label := "error"
	if code, ok := errorx.GetErrorCode(err); ok {
		switch code {
		case errorx.ConfigurationErr:
			label = "configuration error"
		case errorx.CorruptionErr:
			label = "corruption error"
		case errorx.IOErr:
			label = "io error"
		}
	}
	return cli.NewExitError(fmt.Sprintf("%s: %v", label, err), 1)
}
