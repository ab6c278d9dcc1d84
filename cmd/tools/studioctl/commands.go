package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/zhouzirui/artifex/backend/internal/model/studio"
	"github.com/zhouzirui/artifex/backend/internal/service/mask"
	studioService "github.com/zhouzirui/artifex/backend/internal/service/studio"
)

var (
	promptFlag  string
	countFlag   int
	ratioFlag   string
	enhanceFlag bool
	imageFlag   string
	bgFlag      string
	shadowFlag  bool
	maskFlag    string
	outFlag     string
)

var generateCmd = &cobra.Command{
	Use:   "generate",
	Short: "Generate images from a text prompt",
	RunE: func(cmd *cobra.Command, args []string) error {
		ws, err := newWorkspace()
		if err != nil {
			return err
		}
		ctx, cancel := commandContext(cmd)
		defer cancel()

		if err := ws.ctrl.ChooseGenerate(); err != nil {
			return err
		}
		if err := ws.ctrl.SetPrompt(promptFlag); err != nil {
			return err
		}
		if enhanceFlag {
			printStep("enhancing prompt")
			if err := ws.ctrl.EnhancePrompt(ctx, ""); err != nil {
				return err
			}
		}

		printStep(fmt.Sprintf("generating %d image(s) at %s", countFlag, ratioFlag))
		if err := ws.ctrl.GenerateImages(ctx, studioService.GenerateOptions{
			Count:       countFlag,
			AspectRatio: ratioFlag,
		}); err != nil {
			return err
		}
		printScreen(ws.ctrl.Render())
		return nil
	},
}

var packshotCmd = &cobra.Command{
	Use:   "packshot",
	Short: "Place a product image on a solid background",
	RunE: func(cmd *cobra.Command, args []string) error {
		ws, err := openTool(studio.ToolPackshot)
		if err != nil {
			return err
		}
		ctx, cancel := commandContext(cmd)
		defer cancel()

		printStep("generating packshot on " + bgFlag)
		if err := ws.ctrl.GeneratePackshot(ctx, bgFlag); err != nil {
			return err
		}
		if shadowFlag {
			printStep("adding shadow")
			if err := ws.ctrl.AddShadow(ctx); err != nil {
				return err
			}
		}
		return finish(cmd, ws, ws.ctrl.Session().DisplayedPackshotURL())
	},
}

var lifestyleCmd = &cobra.Command{
	Use:   "lifestyle",
	Short: "Place a product in a described scene",
	RunE: func(cmd *cobra.Command, args []string) error {
		ws, err := openTool(studio.ToolLifestyle)
		if err != nil {
			return err
		}
		ctx, cancel := commandContext(cmd)
		defer cancel()

		if err := ws.ctrl.SetPrompt(promptFlag); err != nil {
			return err
		}
		if enhanceFlag {
			printStep("enhancing scene description")
			if err := ws.ctrl.EnhancePrompt(ctx, ""); err != nil {
				return err
			}
		}
		printStep("generating lifestyle shot")
		if err := ws.ctrl.GenerateLifestyle(ctx, ""); err != nil {
			return err
		}
		return finish(cmd, ws, ws.ctrl.Session().LifestyleURL)
	},
}

var eraseCmd = &cobra.Command{
	Use:   "erase",
	Short: "Remove the area painted on a mask canvas",
	Long: `erase reads a transparent canvas the size of the image. Painted pixels mark
the area to remove; only the alpha channel is used.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		canvas, err := os.ReadFile(maskFlag)
		if err != nil {
			return fmt.Errorf("读取遮罩失败: %w", err)
		}
		maskPNG, err := mask.Extract(canvas)
		if err != nil {
			return err
		}

		ws, err := openTool(studio.ToolErase)
		if err != nil {
			return err
		}
		ctx, cancel := commandContext(cmd)
		defer cancel()

		printStep("erasing masked area")
		if err := ws.ctrl.EraseArea(ctx, maskPNG); err != nil {
			return err
		}
		return finish(cmd, ws, ws.ctrl.Session().EraseURL)
	},
}

var enhanceCmd = &cobra.Command{
	Use:   "enhance",
	Short: "Rewrite a prompt into a richer one",
	RunE: func(cmd *cobra.Command, args []string) error {
		ws, err := newWorkspace()
		if err != nil {
			return err
		}
		ctx, cancel := commandContext(cmd)
		defer cancel()

		if err := ws.ctrl.ChooseGenerate(); err != nil {
			return err
		}
		if err := ws.ctrl.EnhancePrompt(ctx, promptFlag); err != nil {
			return err
		}
		printScreen(ws.ctrl.Render())
		return nil
	},
}

func init() {
	generateCmd.Flags().StringVarP(&promptFlag, "prompt", "p", "", "Text prompt")
	generateCmd.Flags().IntVarP(&countFlag, "count", "n", studio.MinImages, "Number of images")
	generateCmd.Flags().StringVar(&ratioFlag, "ratio", studio.DefaultAspectRatio, "Aspect ratio")
	generateCmd.Flags().BoolVar(&enhanceFlag, "enhance", false, "Enhance the prompt first")
	_ = generateCmd.MarkFlagRequired("prompt")

	packshotCmd.Flags().StringVarP(&imageFlag, "image", "i", "", "PNG or JPEG product image")
	packshotCmd.Flags().StringVar(&bgFlag, "bg", studio.DefaultBackgroundColor, "Background color (#RRGGBB)")
	packshotCmd.Flags().BoolVar(&shadowFlag, "shadow", false, "Add a shadow to the packshot")
	packshotCmd.Flags().StringVarP(&outFlag, "out", "o", "", "Download the result to this file")
	_ = packshotCmd.MarkFlagRequired("image")

	lifestyleCmd.Flags().StringVarP(&imageFlag, "image", "i", "", "PNG or JPEG product image")
	lifestyleCmd.Flags().StringVarP(&promptFlag, "prompt", "p", "", "Scene description")
	lifestyleCmd.Flags().BoolVar(&enhanceFlag, "enhance", false, "Enhance the scene description first")
	lifestyleCmd.Flags().StringVarP(&outFlag, "out", "o", "", "Download the result to this file")
	_ = lifestyleCmd.MarkFlagRequired("image")
	_ = lifestyleCmd.MarkFlagRequired("prompt")

	eraseCmd.Flags().StringVarP(&imageFlag, "image", "i", "", "PNG or JPEG image")
	eraseCmd.Flags().StringVarP(&maskFlag, "mask", "m", "", "Canvas PNG whose painted pixels mark the area to erase")
	eraseCmd.Flags().StringVarP(&outFlag, "out", "o", "", "Download the result to this file")
	_ = eraseCmd.MarkFlagRequired("image")
	_ = eraseCmd.MarkFlagRequired("mask")

	enhanceCmd.Flags().StringVarP(&promptFlag, "prompt", "p", "", "Prompt to enhance")
	_ = enhanceCmd.MarkFlagRequired("prompt")
}

// openTool uploads --image and enters tool.
func openTool(tool studio.Tool) (*workspace, error) {
	data, err := os.ReadFile(imageFlag)
	if err != nil {
		return nil, fmt.Errorf("读取图片失败: %w", err)
	}

	ws, err := newWorkspace()
	if err != nil {
		return nil, err
	}
	if err := ws.ctrl.ChooseUpload(); err != nil {
		return nil, err
	}
	if err := ws.ctrl.UploadFile(data); err != nil {
		return nil, err
	}
	if err := ws.ctrl.EnterTool(tool); err != nil {
		return nil, err
	}
	return ws, nil
}

// finish prints the screen and saves the result when --out is set.
func finish(cmd *cobra.Command, ws *workspace, resultURL string) error {
	printScreen(ws.ctrl.Render())
	if outFlag == "" || resultURL == "" {
		return nil
	}

	ctx, cancel := commandContext(cmd)
	defer cancel()
	data, err := ws.downloader.Download(ctx, resultURL)
	if err != nil {
		return err
	}
	if err := os.WriteFile(outFlag, data, 0o644); err != nil {
		return fmt.Errorf("写入结果失败: %w", err)
	}
	fmt.Println(successStyle.Render("✓ saved " + outFlag))
	return nil
}
