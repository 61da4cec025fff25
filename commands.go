package main

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"seibi/auth"
	"seibi/backup"
	"seibi/config"
	"seibi/loader"
	"seibi/mailer"
	"seibi/vehicle"
)

var (
	importEncoding string
	importReplace  bool
	userEmail      string
	userPassword   string
	userAdmin      bool
	backupOutput   string
)

var importCSVCmd = &cobra.Command{
	Use:   "import-csv [csv-file]",
	Short: "顧客管理ソフトの書き出しCSVから顧客と車両を取り込みます",
	Example: `  seibi import-csv export.csv
  seibi import-csv export.csv --encoding utf-8 --replace`,
	Args: cobra.ExactArgs(1),
	RunE: runImportCSV,
}

var importPartsCmd = &cobra.Command{
	Use:   "import-parts [csv-file]",
	Short: "部品マスタCSVを取り込みます",
	Args:  cobra.ExactArgs(1),
	RunE:  runImportParts,
}

var backupCmd = &cobra.Command{
	Use:   "backup",
	Short: "全データをJSONで書き出します",
	Example: `  seibi backup -o seibi_backup.json`,
	Args: cobra.NoArgs,
	RunE: runBackup,
}

var restoreCmd = &cobra.Command{
	Use:   "restore [backup-file]",
	Short: "バックアップJSONから全データを復元します (既存データは置き換えられます)",
	Args:  cobra.ExactArgs(1),
	RunE:  runRestore,
}

var createUserCmd = &cobra.Command{
	Use:   "create-user [username]",
	Short: "ログインユーザーを作成します",
	Example: `  seibi create-user admin --email admin@example.com --password 'secret123' --admin`,
	Args: cobra.ExactArgs(1),
	RunE: runCreateUser,
}

func init() {
	importCSVCmd.Flags().StringVar(&importEncoding, "encoding", "", "CSVの文字コード (省略時は設定値)")
	importCSVCmd.Flags().BoolVar(&importReplace, "replace", false, "取り込み前に既存の顧客と車両を削除する")
	importPartsCmd.Flags().StringVar(&importEncoding, "encoding", "", "CSVの文字コード (省略時は設定値)")

	backupCmd.Flags().StringVarP(&backupOutput, "output", "o", "", "出力先ファイル (省略時は日時入りの名前)")

	createUserCmd.Flags().StringVar(&userEmail, "email", "", "メールアドレス")
	createUserCmd.Flags().StringVar(&userPassword, "password", "", "パスワード (8文字以上)")
	createUserCmd.Flags().BoolVar(&userAdmin, "admin", false, "管理者として作成する")
	_ = createUserCmd.MarkFlagRequired("password")

	rootCmd.AddCommand(importCSVCmd, importPartsCmd, backupCmd, restoreCmd, createUserCmd)
}

func encodingOrDefault() string {
	if importEncoding != "" {
		return importEncoding
	}
	return config.GetConfig().CSVEncoding
}

func runImportCSV(cmd *cobra.Command, args []string) error {
	raw, err := os.ReadFile(args[0])
	if err != nil {
		return err
	}
	db, err := openDatabase()
	if err != nil {
		return err
	}
	defer db.Close()

	res, err := vehicle.NewImporter(db).ImportFromDelimitedText(cmd.Context(), raw, encodingOrDefault(), nil,
		vehicle.ImportOptions{ReplaceExisting: importReplace})
	for _, w := range res.Warnings {
		log.Warn(w)
	}
	for _, e := range res.Errors {
		log.Error(e)
	}
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "顧客 %d 件、車両 %d 件を取り込みました (スキップ %d 件)\n",
		res.ClientsImported, res.VehiclesImported, res.Skipped)
	return nil
}

func runImportParts(cmd *cobra.Command, args []string) error {
	f, err := os.Open(args[0])
	if err != nil {
		return err
	}
	defer f.Close()
	db, err := openDatabase()
	if err != nil {
		return err
	}
	defer db.Close()

	n, err := loader.LoadPartsCSV(db, f, encodingOrDefault())
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "部品マスタを %d 件取り込みました\n", n)
	return nil
}

func runBackup(cmd *cobra.Command, args []string) error {
	db, err := openDatabase()
	if err != nil {
		return err
	}
	defer db.Close()

	now := time.Now()
	env, err := backup.Export(db, now)
	if err != nil {
		return err
	}
	out := backupOutput
	if out == "" {
		out = "seibi_backup_" + now.Format("20060102_150405") + ".json"
	}
	data, err := json.MarshalIndent(env, "", "  ")
	if err != nil {
		return err
	}
	if err := os.WriteFile(out, data, 0600); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "%s に書き出しました\n", out)
	return nil
}

func runRestore(cmd *cobra.Command, args []string) error {
	f, err := os.Open(args[0])
	if err != nil {
		return err
	}
	defer f.Close()
	env, err := backup.Decode(f)
	if err != nil {
		return err
	}
	db, err := openDatabase()
	if err != nil {
		return err
	}
	defer db.Close()

	if err := backup.Restore(db, env); err != nil {
		return err
	}
	for table, n := range env.Tables.Counts() {
		log.WithField("table", table).Infof("%d rows restored", n)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "%s (%s) から復元しました\n", args[0], env.Timestamp.Format("2006-01-02 15:04:05"))
	return nil
}

func runCreateUser(cmd *cobra.Command, args []string) error {
	db, err := openDatabase()
	if err != nil {
		return err
	}
	defer db.Close()

	svc := auth.NewService(db, mailer.New(db))
	u, err := svc.CreateUser(args[0], userEmail, userPassword, userAdmin)
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "ユーザー %s (id=%d) を作成しました\n", u.Username, u.ID)
	return nil
}
