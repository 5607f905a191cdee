package vulkan

import (
	"fmt"
	"strings"

	vk "github.com/goki/vulkan"
	"github.com/spaghettifunk/titan/engine/rhi"
)

type VulkanRenderPass struct {
	Handle vk.RenderPass
}

// renderPassKey is the format signature a compiled pipeline is bound to.
// Pipelines with the same color/depth attachments share one render pass.
func renderPassKey(desc *rhi.PipelineDescription) string {
	var sb strings.Builder
	for _, format := range desc.ColorFormats {
		fmt.Fprintf(&sb, "c%d.", format)
	}
	if desc.HasDepth {
		fmt.Fprintf(&sb, "d%d.", desc.DepthFormat)
	}
	if desc.SwapchainTarget {
		sb.WriteString("swap")
	}
	return sb.String()
}

// RenderPassObtain returns the render pass for the description's attachment
// formats, creating and caching it on first use.
func RenderPassObtain(context *VulkanContext, desc *rhi.PipelineDescription) (*VulkanRenderPass, error) {
	key := renderPassKey(desc)
	if rp, ok := context.RenderPasses[key]; ok {
		return rp, nil
	}

	attachments := make([]vk.AttachmentDescription, 0, len(desc.ColorFormats)+1)
	colorRefs := make([]vk.AttachmentReference, 0, len(desc.ColorFormats))

	for _, format := range desc.ColorFormats {
		vkFormat, err := convFormat(format)
		if err != nil {
			return nil, err
		}
		finalLayout := vk.ImageLayoutShaderReadOnlyOptimal
		if desc.SwapchainTarget {
			finalLayout = vk.ImageLayoutPresentSrc
		}
		colorRefs = append(colorRefs, vk.AttachmentReference{
			Attachment: uint32(len(attachments)),
			Layout:     vk.ImageLayoutColorAttachmentOptimal,
		})
		attachments = append(attachments, vk.AttachmentDescription{
			Format:         vkFormat,
			Samples:        vk.SampleCount1Bit,
			LoadOp:         vk.AttachmentLoadOpClear,
			StoreOp:        vk.AttachmentStoreOpStore,
			StencilLoadOp:  vk.AttachmentLoadOpDontCare,
			StencilStoreOp: vk.AttachmentStoreOpDontCare,
			InitialLayout:  vk.ImageLayoutUndefined,
			FinalLayout:    finalLayout,
		})
	}

	subpass := vk.SubpassDescription{
		PipelineBindPoint:    vk.PipelineBindPointGraphics,
		ColorAttachmentCount: uint32(len(colorRefs)),
		PColorAttachments:    colorRefs,
	}

	var depthRef vk.AttachmentReference
	if desc.HasDepth {
		vkFormat, err := convFormat(desc.DepthFormat)
		if err != nil {
			return nil, err
		}
		depthRef = vk.AttachmentReference{
			Attachment: uint32(len(attachments)),
			Layout:     vk.ImageLayoutDepthStencilAttachmentOptimal,
		}
		attachments = append(attachments, vk.AttachmentDescription{
			Format:         vkFormat,
			Samples:        vk.SampleCount1Bit,
			LoadOp:         vk.AttachmentLoadOpClear,
			StoreOp:        vk.AttachmentStoreOpDontCare,
			StencilLoadOp:  vk.AttachmentLoadOpDontCare,
			StencilStoreOp: vk.AttachmentStoreOpDontCare,
			InitialLayout:  vk.ImageLayoutUndefined,
			FinalLayout:    vk.ImageLayoutDepthStencilAttachmentOptimal,
		})
		subpass.PDepthStencilAttachment = &depthRef
	}

	dependency := vk.SubpassDependency{
		SrcSubpass:    vk.SubpassExternal,
		DstSubpass:    0,
		SrcStageMask:  vk.PipelineStageFlags(vk.PipelineStageColorAttachmentOutputBit),
		SrcAccessMask: 0,
		DstStageMask:  vk.PipelineStageFlags(vk.PipelineStageColorAttachmentOutputBit),
		DstAccessMask: vk.AccessFlags(vk.AccessColorAttachmentReadBit | vk.AccessColorAttachmentWriteBit),
	}

	renderPassCreateInfo := vk.RenderPassCreateInfo{
		SType:           vk.StructureTypeRenderPassCreateInfo,
		AttachmentCount: uint32(len(attachments)),
		PAttachments:    attachments,
		SubpassCount:    1,
		PSubpasses:      []vk.SubpassDescription{subpass},
		DependencyCount: 1,
		PDependencies:   []vk.SubpassDependency{dependency},
	}

	var handle vk.RenderPass
	if res := vk.CreateRenderPass(context.Device.LogicalDevice, &renderPassCreateInfo, context.Allocator, &handle); res != vk.Success {
		return nil, fmt.Errorf("vkCreateRenderPass failed with %s", VulkanResultString(res))
	}

	rp := &VulkanRenderPass{Handle: handle}
	context.RenderPasses[key] = rp
	return rp, nil
}

func (rp *VulkanRenderPass) Destroy(context *VulkanContext) {
	if rp.Handle != vk.NullRenderPass {
		vk.DestroyRenderPass(context.Device.LogicalDevice, rp.Handle, context.Allocator)
		rp.Handle = vk.NullRenderPass
	}
}
