package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"agencyhub/internal/rbac"
)

func newPolicyCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "policy",
		Short: "Print the role permission matrix as YAML",
		// The matrix is compiled in; no config or database is needed.
		PersistentPreRunE: func(*cobra.Command, []string) error { return nil },
		RunE: func(cmd *cobra.Command, _ []string) error {
			policy := make(map[rbac.Role]map[rbac.Resource][]rbac.Action, len(rbac.Roles()))
			for _, role := range rbac.Roles() {
				policy[role] = make(map[rbac.Resource][]rbac.Action)
				for _, res := range rbac.Resources() {
					if actions := rbac.Allowed(role, res); len(actions) > 0 {
						policy[role][res] = actions
					}
				}
			}
			out, err := yaml.Marshal(policy)
			if err != nil {
				return fmt.Errorf("encode policy: %w", err)
			}
			_, err = cmd.OutOrStdout().Write(out)
			return err
		},
	}
}
