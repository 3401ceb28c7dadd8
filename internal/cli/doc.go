// Package cli implements the livecharts command-line interface.
//
// Commands are cobra.Command values registered on rootCmd in init functions.
// Each command loads and resolves the config, opens a stats source, and hands
// a pipeline to its front end.
//
//	livecharts watch      - live dashboard
//	livecharts snapshot   - collect a few samples and print a table
//	livecharts doctor     - diagnose the config, SSH and runtime
//	livecharts init       - create .livecharts.yaml
//	livecharts version    - print build information
//
// # Flag Handling
//
// --config is persistent on the root command. Every other config key has a
// flag of the same name (see config.FlagKeys), registered by AddConfigFlags
// on watch, snapshot and doctor. Flags that are set win over the environment, which
// wins over the file.
package cli
