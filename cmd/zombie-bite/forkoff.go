// Copyright (C) 2024  The zombie-bite Authors
//
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as
// published by the Free Software Foundation, either version 3 of the
// License, or (at your option) any later version.
//
// This program is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
// GNU Affero General Public License for more details.
//
// You should have received a copy of the GNU Affero General Public License
// along with this program.  If not, see <http://www.gnu.org/licenses/>.

package main

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/zombienet/zombie-bite/chains"
	"github.com/zombienet/zombie-bite/chainspec"
	"github.com/zombienet/zombie-bite/internal/logging"
	vgfs "github.com/zombienet/zombie-bite/libs/fs"
	vgzap "github.com/zombienet/zombie-bite/libs/zap"

	"github.com/spf13/cobra"
)

var forkOffArgs struct {
	donor            string
	para             bool
	heads            []string
	simpleGovernance bool
	keepBootnodes    bool
	output           string
}

func init() {
	rootCmd.AddCommand(forkOffCmd)
	f := forkOffCmd.Flags()
	f.StringVar(&forkOffArgs.donor, "donor", "", "Raw spec of the local chain donating its consensus state")
	f.BoolVar(&forkOffArgs.para, "para", false, "The exported state is a parachain state")
	f.StringSliceVar(&forkOffArgs.heads, "head", nil, "Parachain head installed in the relay chain, as <id>=<hex head>")
	f.BoolVar(&forkOffArgs.simpleGovernance, "simple-governance", false, "Hand every governance seat to alice")
	f.BoolVar(&forkOffArgs.keepBootnodes, "keep-bootnodes", false, "Keep the boot nodes of the donor spec")
	f.StringVarP(&forkOffArgs.output, "output", "o", "", "Forked spec path, defaults to <exported state>.fork-off")
	_ = forkOffCmd.MarkFlagRequired("donor")
}

var forkOffCmd = &cobra.Command{
	Use:   "fork-off <exported state>",
	Short: "Build a chain spec from an exported state and the consensus of a local chain",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		heads, err := parseHeads(forkOffArgs.heads)
		if err != nil {
			return err
		}
		kind := chains.Relay
		if forkOffArgs.para {
			kind = chains.Para
			if len(heads) > 0 {
				return errors.New("parachain heads only apply to relay chains")
			}
		}

		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		log := logging.NewLoggerFromConfig(cfg.LoggingConfig())
		defer vgzap.Sync(log)()

		path, err := chainspec.ForkOff(cmd.Context(), args[0], chainspec.ForkOffConfig{
			RenewConsensusWith:      forkOffArgs.donor,
			SimpleGovernance:        forkOffArgs.simpleGovernance,
			DisableDefaultBootnodes: !forkOffArgs.keepBootnodes,
			ParasHeads:              heads,
		}, kind)
		if err != nil {
			return err
		}
		if forkOffArgs.output != "" {
			if err := vgfs.Move(path, forkOffArgs.output); err != nil {
				return err
			}
			path = forkOffArgs.output
		}
		log.Info("chain forked off", logging.String("kind", kind.String()), logging.String("spec", path))
		return nil
	},
}

func parseHeads(values []string) (chainspec.ParasHeads, error) {
	heads := chainspec.ParasHeads{}
	for _, v := range values {
		id, head, ok := strings.Cut(v, "=")
		if !ok {
			return nil, fmt.Errorf("invalid head %q, expected <id>=<hex head>", v)
		}
		n, err := strconv.ParseUint(strings.TrimSpace(id), 10, 32)
		if err != nil {
			return nil, fmt.Errorf("invalid para id in head %q: %w", v, err)
		}
		heads[uint32(n)] = strings.TrimSpace(head)
	}
	return heads, nil
}
