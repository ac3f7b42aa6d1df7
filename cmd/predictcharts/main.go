// predictcharts はMLデータのJSONファイルから予測グラフをPNGまたはxlsxに書き出すCLIです。
package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	config "relief-dashboard-api/configs"
	"relief-dashboard-api/pkg/models"
	"relief-dashboard-api/pkg/server"
	"relief-dashboard-api/pkg/services"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "predictcharts",
		Short: "Render demand and risk charts from ML prediction output",
	}
	root.AddCommand(newRenderCmd())
	return root
}

func newRenderCmd() *cobra.Command {
	v := viper.New()
	v.SetEnvPrefix("DRMS")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	cmd := &cobra.Command{
		Use:   "render",
		Short: "Render charts to PNG files or an xlsx workbook",
		Example: `  predictcharts render --input ml_data.json --out ./charts
  predictcharts render --input ml_data.json --format xlsx --out ./charts`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRender(v)
		},
	}

	flags := cmd.Flags()
	flags.String("input", "", "ML data JSON file (use - for stdin)")
	flags.String("out", ".", "output directory")
	flags.String("format", "png", "output format: png or xlsx")
	flags.String("sections", "", "sections to render: demand,risk (default: both)")
	if err := v.BindPFlags(flags); err != nil {
		panic(err)
	}
	return cmd
}

func runRender(v *viper.Viper) error {
	input := v.GetString("input")
	if input == "" {
		return fmt.Errorf("--input is required")
	}
	mlData, err := readMLData(input)
	if err != nil {
		return err
	}
	sections, err := services.ParseSections(v.GetString("sections"))
	if err != nil {
		return err
	}

	outDir := v.GetString("out")
	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return fmt.Errorf("出力ディレクトリの作成に失敗: %w", err)
	}

	cfg := config.LoadConfig()
	chartService := services.NewPredictionChartService(server.ChartDefaults(cfg), server.ChartLayout(cfg), nil)

	switch format := v.GetString("format"); format {
	case "png":
		return writePNGs(chartService, mlData, sections, outDir)
	case "xlsx":
		return writeWorkbook(chartService, mlData, outDir)
	default:
		return fmt.Errorf("unknown format %q (png or xlsx)", format)
	}
}

func readMLData(path string) (*models.MLData, error) {
	var (
		raw []byte
		err error
	)
	if path == "-" {
		raw, err = io.ReadAll(os.Stdin)
	} else {
		raw, err = os.ReadFile(path)
	}
	if err != nil {
		return nil, fmt.Errorf("入力の読み込みに失敗: %w", err)
	}
	var data models.MLData
	if err := json.Unmarshal(raw, &data); err != nil {
		return nil, fmt.Errorf("MLデータの解析に失敗: %w", err)
	}
	return &data, nil
}

func writePNGs(chartService *services.PredictionChartService, mlData *models.MLData, sections services.Sections, outDir string) error {
	dashboard := chartService.RenderRaster(mlData, sections)
	result := dashboard.Result()
	if len(result.Surfaces) == 0 {
		fmt.Println("no charts rendered")
		return nil
	}
	for _, s := range result.Surfaces {
		path := filepath.Join(outDir, s.ID+".png")
		if err := os.WriteFile(path, s.PNG, 0o644); err != nil {
			return fmt.Errorf("%s の書き込みに失敗: %w", path, err)
		}
		fmt.Printf("wrote %s (%dx%d)\n", path, s.Width, s.Height)
	}
	return nil
}

func writeWorkbook(chartService *services.PredictionChartService, mlData *models.MLData, outDir string) error {
	path := filepath.Join(outDir, "predictions.xlsx")
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("%s の作成に失敗: %w", path, err)
	}
	defer f.Close()

	if err := chartService.ExportWorkbook(mlData, f); err != nil {
		return err
	}
	fmt.Printf("wrote %s\n", path)
	return nil
}
