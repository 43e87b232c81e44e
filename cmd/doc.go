// Package cmd provides the command-line interface for cloudpilot.
//
// This package implements a Cobra-based CLI with multiple subcommands:
//   - providers: Lists provider backends and their advertised features
//   - clusters: Lists the clusters a provider knows about
//   - namespaces: Lists namespaces on the connected cluster
//   - resources: Lists or gets workload resources
//   - watch: Streams resource change events until interrupted
//   - serve: Runs the HTTP API and metrics servers
//   - version: Displays the application version
//
// Command Structure:
//
//	cloudpilot providers
//	cloudpilot clusters [--provider kubernetes]
//	cloudpilot namespaces [--cluster my-context]
//	cloudpilot resources pods [--namespace default] [name]
//	cloudpilot watch deployments --namespace production
//	cloudpilot serve [--addr :8080] [--metrics-addr :9090]
//
// All commands share the --config, --kubeconfig, --provider, and
// --log-level persistent flags.
package cmd
