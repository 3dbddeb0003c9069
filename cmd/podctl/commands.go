package main

import "github.com/spf13/cobra"

var (
	profilePath string
	apiURLFlag  string
	accountFlag string
	verbose     bool

	loginEmail    string
	treeBin       bool
	treeSearch    string
	purgeConfirm  string
	importDryRun  bool
	templateOut   string
	exportOut     string
	saveAsDefault bool

	rootCmd = &cobra.Command{
		Use:           "podctl",
		Short:         "Manage pods, licenses and interview reports from the terminal",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	loginCmd = &cobra.Command{
		Use:   "login",
		Short: "Sign in and keep the session in the OS keyring",
		Args:  cobra.NoArgs,
		RunE:  runLogin,
	}
	logoutCmd = &cobra.Command{
		Use:   "logout",
		Short: "Sign out and forget the stored session",
		Args:  cobra.NoArgs,
		RunE:  runLogout,
	}
	whoamiCmd = &cobra.Command{
		Use:   "whoami",
		Short: "Show the signed-in admin",
		Args:  cobra.NoArgs,
		RunE:  runWhoami,
	}

	podsCmd = &cobra.Command{
		Use:   "pods",
		Short: "Browse and manage pods",
	}
	podsTreeCmd = &cobra.Command{
		Use:   "tree",
		Short: "Print the pod hierarchy you can see",
		Args:  cobra.NoArgs,
		RunE:  runPodsTree,
	}
	podsDeleteCmd = &cobra.Command{
		Use:   "delete <pod-id>",
		Short: "Move a pod and its subtree to the bin",
		Args:  cobra.ExactArgs(1),
		RunE:  runPodsDelete,
	}
	podsRestoreCmd = &cobra.Command{
		Use:   "restore <pod-id>",
		Short: "Restore a pod from the bin",
		Args:  cobra.ExactArgs(1),
		RunE:  runPodsRestore,
	}
	podsPurgeCmd = &cobra.Command{
		Use:   "purge <pod-id>",
		Short: "Permanently delete a pod from the bin",
		Args:  cobra.ExactArgs(1),
		RunE:  runPodsPurge,
	}
	licensesCmd = &cobra.Command{
		Use:   "licenses",
		Short: "Change a pod's license pool",
	}
	licensesSetCmd = &cobra.Command{
		Use:   "set <pod-id> <total>",
		Short: "Set a pod's total licenses",
		Args:  cobra.ExactArgs(2),
		RunE:  runLicensesSet,
	}
	licensesAddCmd = &cobra.Command{
		Use:   "add <pod-id> <amount>",
		Short: "Add licenses to a pod",
		Args:  cobra.ExactArgs(2),
		RunE:  runLicensesAdd,
	}

	usersCmd = &cobra.Command{
		Use:   "users",
		Short: "Manage pod members",
	}
	usersImportCmd = &cobra.Command{
		Use:   "import <pod-id> <file>",
		Short: "Bulk import users from a CSV or XLSX sheet into one pod",
		Args:  cobra.ExactArgs(2),
		RunE:  runUsersImport,
	}

	massUploadCmd = &cobra.Command{
		Use:   "mass-upload",
		Short: "Distribute users across pods by the sheet's pod_name column",
	}
	massUploadPreviewCmd = &cobra.Command{
		Use:   "preview <file>",
		Short: "Check a mass upload sheet without changing anything",
		Args:  cobra.ExactArgs(1),
		RunE:  runMassUploadPreview,
	}
	massUploadRunCmd = &cobra.Command{
		Use:   "run <file>",
		Short: "Apply a mass upload sheet",
		Args:  cobra.ExactArgs(1),
		RunE:  runMassUpload,
	}
	massUploadTemplateCmd = &cobra.Command{
		Use:   "template",
		Short: "Write the mass upload CSV template",
		Args:  cobra.NoArgs,
		RunE:  runMassUploadTemplate,
	}

	reportsCmd = &cobra.Command{
		Use:   "reports",
		Short: "Export interview reports",
	}
	reportsExportCmd = &cobra.Command{
		Use:   "export <interview-id>...",
		Short: "Export interview reports as PDFs in a zip archive",
		Args:  cobra.MinimumNArgs(1),
		RunE:  runReportsExport,
	}
)

func init() {
	rootCmd.PersistentFlags().StringVar(&profilePath, "profile", defaultProfilePath(), "profile file")
	rootCmd.PersistentFlags().StringVar(&apiURLFlag, "api-url", "", "interview platform API base URL")
	rootCmd.PersistentFlags().StringVar(&accountFlag, "account", "", "keyring account holding the session")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "log requests to stderr")

	loginCmd.Flags().StringVar(&loginEmail, "email", "", "admin email")
	loginCmd.Flags().BoolVar(&saveAsDefault, "save", false, "store --api-url and --account in the profile")
	rootCmd.AddCommand(loginCmd, logoutCmd, whoamiCmd)

	podsTreeCmd.Flags().BoolVar(&treeBin, "bin", false, "show deleted pods instead")
	podsTreeCmd.Flags().StringVar(&treeSearch, "search", "", "filter by pod name")
	podsPurgeCmd.Flags().StringVar(&purgeConfirm, "confirm", "", "pass DELETE to skip the prompt")
	licensesCmd.AddCommand(licensesSetCmd, licensesAddCmd)
	podsCmd.AddCommand(podsTreeCmd, podsDeleteCmd, podsRestoreCmd, podsPurgeCmd, licensesCmd)
	rootCmd.AddCommand(podsCmd)

	usersImportCmd.Flags().BoolVar(&importDryRun, "dry-run", false, "plan the import without applying it")
	usersCmd.AddCommand(usersImportCmd)
	rootCmd.AddCommand(usersCmd)

	massUploadTemplateCmd.Flags().StringVarP(&templateOut, "output", "o", "mass_upload_template.csv", "output file")
	massUploadCmd.AddCommand(massUploadPreviewCmd, massUploadRunCmd, massUploadTemplateCmd)
	rootCmd.AddCommand(massUploadCmd)

	reportsExportCmd.Flags().StringVarP(&exportOut, "output", "o", "interview_reports.zip", "output zip file")
	reportsCmd.AddCommand(reportsExportCmd)
	rootCmd.AddCommand(reportsCmd)
}
